package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RespondJSON writes payload as a JSON response.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError writes {"error": message, "success": false}.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]any{"error": message, "success": false})
}

// RespondFailure writes an error response carrying operator-facing detail.
func RespondFailure(w http.ResponseWriter, status int, message, detail string) {
	RespondJSON(w, status, map[string]any{"error": message, "detail": detail, "success": false})
}
