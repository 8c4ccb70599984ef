// Package ws streams live board events to WebSocket clients.
package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/server/middleware"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// ProjectFinder resolves a project the principal is allowed to see.
// *service.ProjectService satisfies it.
type ProjectFinder interface {
	Get(ctx context.Context, p tenancy.Principal, projectID uuid.UUID) (*service.ProjectDetails, error)
}

// Hub bridges the event broker to WebSocket connections.
type Hub struct {
	broker   events.Broker
	projects ProjectFinder
	// AcceptOptions is passed to websocket.Accept. Nil enforces same origin.
	AcceptOptions *websocket.AcceptOptions
}

func NewHub(broker events.Broker, projects ProjectFinder) *Hub {
	return &Hub{broker: broker, projects: projects}
}

// ServeBoard streams the board events of one project. The project is
// resolved under the caller's tenant scope before upgrading, so a board in
// another tenant reads as missing.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "projectId"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	project, err := h.projects.Get(r.Context(), p, projectID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Project not found")
		return
	case errors.Is(err, domain.ErrForbidden):
		middleware.WriteError(w, http.StatusForbidden, "Access denied")
		return
	case err != nil:
		log.Error().Err(err).Str("project_id", projectID.String()).Msg("ws: resolve project")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	conn, err := websocket.Accept(w, r, h.AcceptOptions)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.broker.Subscribe(ctx, events.BoardChannel(project.TenantID, project.ID))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	log.Debug().
		Str("user_id", p.UserID.String()).
		Str("project_id", project.ID.String()).
		Msg("ws: board subscribed")

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
