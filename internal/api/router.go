package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/visproject/internal/studyservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *studyservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Project tree.
	r.Get("/projects", h.GetTree)
	r.Put("/projects", h.ReplaceTree)
	r.Post("/projects", h.ReplaceTree)
	r.Get("/projects/colors", h.Colors)
	r.Route("/projects/node", func(r chi.Router) {
		r.Post("/", h.AddNode)
		r.Delete("/{id}", h.DeleteNode)
		r.Patch("/{id}", h.RenameNode)
		r.Post("/{id}/move", h.MoveNode)
		r.Post("/{id}/toggle-done", h.ToggleDone)
		r.Put("/{id}/review", h.SetReview)
		r.Delete("/{id}/review", h.UnsetReview)
		r.Put("/{id}/color", h.SetColor)
		r.Delete("/{id}/color", h.ClearColor)
	})

	// Records and timer.
	r.Get("/records/{mode}/{nodeID}", h.NodeRecords)
	r.Post("/records/{mode}", h.AddRecord)
	r.Post("/timer/complete", h.CompleteTimer)

	// Session state machine.
	r.Get("/session", h.GetSession)
	r.Post("/session/start", h.StartSession)
	r.Post("/session/pause", h.PauseSession)
	r.Post("/session/end", h.EndSession)

	// Review and statistics.
	r.Get("/review/suggest", h.Suggest)
	r.Get("/stats/totals", h.Totals)
	r.Get("/stats/summary", h.Summary)
	r.Get("/stats/nodes/{id}", h.NodeStats)
	r.Get("/stats/timeline", h.Timeline)

	// Settings and status.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
	r.Post("/settings", h.UpdateSettings)
	r.Get("/status", h.Status)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
