package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"modelrouter/internal/benchmark"
	"modelrouter/internal/middleware"
	"modelrouter/internal/registry"
	"modelrouter/internal/routing"
)

// handleChat is the OpenAI-compatible entry point. The payload's "model"
// field is advisory only: the routing rules pick the backend from the
// request's file extension and prompt, and the chosen model is substituted
// before the payload is forwarded.
func (d *Dependencies) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.New().String()

	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()

	if rec, ok := middleware.GetAPIKeyRecord(ctx); ok {
		if !d.RateLimit.Allow(ctx, rec.ID) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := routeRequest(payload)
	modelID, err := d.Routing.SelectModel(req)
	if err != nil {
		if errors.Is(err, routing.ErrNoRoute) {
			writeJSONError(w, http.StatusUnprocessableEntity, "no routing rule matched the request")
			return
		}
		if errors.Is(err, registry.ErrUnknownModel) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	entry, err := d.Registry.Resolve(modelID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := d.Backend.Forward(ctx, entry, payload)
	latency := time.Since(start)

	rec := &benchmark.Record{
		Timestamp: time.Now(),
		RequestID: reqID,
		Kind:      "chat",
		Model:     entry.ID,
		Prompt:    benchmark.Sample(req.Prompt),
		LatencyMS: latency.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	_ = d.Sink.Enqueue(rec)

	if err != nil {
		d.Log.Error("backend request failed", "model", entry.ID, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			writeJSONError(w, http.StatusGatewayTimeout, "backend timed out")
			return
		}
		writeJSONError(w, http.StatusBadGateway, "backend unreachable")
		return
	}

	d.Log.Info("routed chat request",
		"request_id", reqID,
		"model", entry.ID,
		"status", result.StatusCode,
		"latency_ms", latency.Milliseconds())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	_, _ = w.Write(result.Body)
}

// writeJSONError replies with an OpenAI-style error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"code":    statusCode,
		},
	}

	_ = json.NewEncoder(w).Encode(errorResp)
}
