package httpapi

import (
	"net/http"

	"modelrouter/internal/utils"
)

// handleModels lists the configured models in OpenAI list format. The mode
// field is an extension so editor clients can group chat, inline and agent
// models.
func (d *Dependencies) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := d.Registry.List()
	data := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		data = append(data, map[string]any{
			"id":       entry.ID,
			"object":   "model",
			"owned_by": "local",
			"mode":     entry.Mode,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"models":    d.Registry.Len(),
		"workflows": d.Workflows.Len(),
	})
}

func (d *Dependencies) handleVersion(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"version": Version,
	})
}
