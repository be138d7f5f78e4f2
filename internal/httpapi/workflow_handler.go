package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"modelrouter/internal/workflow"
)

type workflowRequest struct {
	Input string `json:"input"`
}

// handleWorkflow runs the workflow named in the path: POST
// /v1/workflows/{name} with {"input": "..."}. A successful run returns the
// final output plus the full step trace; a failed run returns the partial
// trace up to the failing step.
func (d *Dependencies) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/workflows/")
	if name == "" || strings.Contains(name, "/") {
		writeJSONError(w, http.StatusNotFound, "workflow not found")
		return
	}

	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := d.Workflows.Run(r.Context(), name, req.Input)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "workflow not found")
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			writeJSONError(w, http.StatusGatewayTimeout, "workflow timed out")
			return
		}

		var stepErr *workflow.StepError
		if errors.As(err, &stepErr) {
			d.Log.Error("workflow run failed",
				"workflow", name,
				"step", stepErr.Index,
				"error", stepErr.Err)
			writeWorkflowFailure(w, result, stepErr)
			return
		}

		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// writeWorkflowFailure reports a failed run with the trace collected so far
// so the caller can see which steps completed before the failure.
func writeWorkflowFailure(w http.ResponseWriter, result *workflow.RunResult, stepErr *workflow.StepError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)

	resp := map[string]any{
		"error": map[string]any{
			"message": stepErr.Error(),
			"type":    "workflow_step_error",
			"step":    stepErr.Index,
		},
	}
	if result != nil {
		resp["workflow"] = result.Workflow
		resp["run_id"] = result.RunID
		resp["steps"] = result.Steps
	}
	_ = json.NewEncoder(w).Encode(resp)
}
