package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"splice/internal/api"
	"splice/internal/logging"
	"splice/internal/services"
)

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, label, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: label, Details: details})
}

// writePipelineError translates a classified pipeline error into the JSON
// failure shape with the taxonomy's HTTP status.
func writePipelineError(w http.ResponseWriter, err error) {
	writeErrorResponse(w, services.HTTPStatus(err), services.Label(err), services.Detail(err))
}

func openOutput(path string) (*os.File, error) {
	return os.Open(path)
}
