package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const healthTimeout = 2 * time.Second

type healthStatus struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler reports 200 when the database answers a ping and 503
// otherwise. It sits outside huma so load balancers get a plain body.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		body := healthStatus{Status: "ok", Database: "connected", Timestamp: time.Now().UTC()}
		status := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health: database ping failed")
			body.Status, body.Database = "error", "disconnected"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Debug().Err(err).Msg("health: write body")
		}
	}
}
