package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"modelrouter/internal/auth"
	"modelrouter/internal/utils"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleAdminLogin exchanges admin credentials for a short-lived JWT.
func (d *Dependencies) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := d.Admin.CheckPassword(req.Username, req.Password); err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := auth.GenerateAdminJWT(req.Username, d.Config.JWTSecret, d.Config.AdminTokenTTL)
	if err != nil {
		d.Log.Error("token generation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// handleMemoryReset clears the shared workflow memory store.
func (d *Dependencies) handleMemoryReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := d.Memory.Reset(r.Context()); err != nil {
		d.Log.Error("memory reset failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "memory reset failed")
		return
	}

	d.Log.Info("memory store reset")
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleBenchmarks returns recently persisted benchmark records, newest
// first. Requires the Postgres-backed benchmark pipeline.
func (d *Dependencies) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if d.Benchmarks == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "benchmark persistence is not configured")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := d.Benchmarks.Recent(r.Context(), limit)
	if err != nil {
		d.Log.Error("benchmark query failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"records": records,
	})
}
