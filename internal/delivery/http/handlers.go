package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/delivery/ws"
	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
	"github.com/mmuslimabdulj/gelly-pet/internal/identity"
	"github.com/mmuslimabdulj/gelly-pet/internal/usecase"
	"github.com/mmuslimabdulj/gelly-pet/view/pages"
)

const maxUserIDLength = 128

// Interactor is the pet service as seen by the handlers
type Interactor interface {
	Interact(ctx context.Context, req usecase.InteractRequest) (domain.PetState, error)
	GetState(ctx context.Context, userID string) (domain.PetState, bool, error)
	Leaderboard(n int) []domain.LeaderboardEntry
}

// BalanceLookup returns a caller's external points balance
type BalanceLookup interface {
	Balance(ctx context.Context, id domain.Identity) (usecase.Balance, error)
}

// HandlerConfig holds the request-level settings
type HandlerConfig struct {
	AllowedOrigins  []string
	LeaderboardSize int
	UpstreamTimeout time.Duration
}

// Handler serves the HTTP API, the viewer page and the live channel.
// Resolver and Balances may be nil when not configured.
type Handler struct {
	service  Interactor
	balances BalanceLookup
	resolver identity.Resolver
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
	cfg      HandlerConfig
}

// NewHandler creates a new Handler
func NewHandler(service Interactor, hub *ws.Hub, resolver identity.Resolver, balances BalanceLookup, logger *zap.Logger, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 3 * time.Second
	}
	h := &Handler{
		service:  service,
		balances: balances,
		resolver: resolver,
		hub:      hub,
		logger:   logger,
		cfg:      cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.isOriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// isOriginAllowed checks if the origin is in the allowed list
func (h *Handler) isOriginAllowed(origin string) bool {
	// Empty origin is allowed (same-origin requests)
	if origin == "" {
		return true
	}

	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// HandleInteract applies one action: POST /v1/interact {user, action}
func (h *Handler) HandleInteract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User   string `json:"user"`
		Action string `json:"action"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	id, err := h.identify(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	state, err := h.service.Interact(r.Context(), usecase.InteractRequest{
		UserID:   req.User,
		Action:   req.Action,
		Identity: id,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, interactResponse{Success: true, State: &state})
}

// HandleState returns a pet or its defaults: GET /v1/state/{userId}
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	state, found, err := h.service.GetState(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Found: found, State: state})
}

// HandleLeaderboard returns the top entries: GET /v1/leaderboard?limit=
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := h.cfg.LeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val <= 0 {
			writeFailure(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
			return
		}
		n = val
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Entries: h.service.Leaderboard(n)})
}

// HandleBalance returns the caller's points balance: GET /v1/balance
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil || h.balances == nil {
		writeFailure(w, http.StatusServiceUnavailable, codeNotEnabled, "balance lookup is not configured")
		return
	}

	id, err := h.identify(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if id == nil {
		writeFailure(w, http.StatusUnauthorized, codeUnauthorized, "bearer token required")
		return
	}

	balance, err := h.balances.Balance(r.Context(), *id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// HandleWebSocket upgrades HTTP to WebSocket: GET /ws?userId=
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if len(userID) > maxUserIDLength {
		http.Error(w, "userId too long", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleViewer serves the live viewer page: GET /?userId=
func (h *Handler) HandleViewer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	component := pages.Viewer(pages.ViewerProps{
		UserID:          strings.TrimSpace(r.URL.Query().Get("userId")),
		LeaderboardSize: h.cfg.LeaderboardSize,
	})
	if err := component.Render(r.Context(), w); err != nil {
		h.logger.Warn("failed to render viewer", zap.Error(err))
	}
}

// HandleHealth reports liveness: GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": h.hub.ClientCount(),
	})
}

// identify resolves the bearer token when one is sent and a resolver is
// configured. No token yields a nil identity.
func (h *Handler) identify(r *http.Request) (*domain.Identity, error) {
	if h.resolver == nil {
		return nil, nil
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return nil, nil
	}

	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.UpstreamTimeout)
	defer cancel()

	id, err := h.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	id = sanitizeIdentity(id)
	return &id, nil
}
