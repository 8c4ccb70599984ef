package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteError writes the {success:false, message} body used by every API
// error, so middleware rejections look like handler errors.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Message: message}); err != nil {
		log.Debug().Err(err).Msg("middleware: write error body")
	}
}
