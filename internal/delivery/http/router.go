package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/middleware"
)

// RouterDeps groups what NewRouter wires together
type RouterDeps struct {
	Handler          *Handler
	Logger           *zap.Logger
	APILimiter       *middleware.IPRateLimiter
	WebSocketLimiter *middleware.IPRateLimiter
	// Metrics serves /metrics when set
	Metrics http.Handler
}

// NewRouter builds the route table.
//
// Middleware order: RequestID → Recoverer → RequestLogger → SecurityHeaders,
// with per-IP rate limits on /v1 and /ws.
func NewRouter(deps RouterDeps) http.Handler {
	h := deps.Handler

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.SecurityHeaders)

	r.Get("/", h.HandleViewer)
	r.Get("/healthz", h.HandleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		if deps.APILimiter != nil {
			r.Use(middleware.RateLimitMiddleware(deps.APILimiter))
		}
		r.Post("/interact", h.HandleInteract)
		r.Get("/state/{userId}", h.HandleState)
		r.Get("/leaderboard", h.HandleLeaderboard)
		r.Get("/balance", h.HandleBalance)
	})

	r.Group(func(r chi.Router) {
		if deps.WebSocketLimiter != nil {
			r.Use(middleware.RateLimitMiddleware(deps.WebSocketLimiter))
		}
		r.Get("/ws", h.HandleWebSocket)
	})

	return r
}
