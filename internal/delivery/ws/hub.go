package ws

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
	"github.com/mmuslimabdulj/gelly-pet/internal/metrics"
)

// Snapshotter supplies the latest known states for new viewers
type Snapshotter interface {
	State(userID string) (domain.PetState, bool)
	TopN(n int) []domain.LeaderboardEntry
}

// HubConfig tunes delivery
type HubConfig struct {
	// LeaderboardSize is the number of entries sent with every leaderboard event
	LeaderboardSize int

	// BroadcastUpdates sends per-user updates to every viewer instead of
	// only the owner's connections
	BroadcastUpdates bool

	Metrics metrics.Recorder
	Logger  *zap.Logger
}

// Hub owns the connection registry. Only the Run loop touches the maps
// for writing; ClientCount reads them under the lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	byUser  map[string]map[string]*Client

	register   chan *Client
	unregister chan *Client
	publish    chan domain.PetState
	done       chan struct{}

	snapshots        Snapshotter
	leaderboardSize  int
	broadcastUpdates bool
	metrics          metrics.Recorder
	logger           *zap.Logger
	now              func() time.Time
}

// NewHub creates a new Hub
func NewHub(snapshots Snapshotter, cfg HubConfig) *Hub {
	h := &Hub{
		clients:          make(map[string]*Client),
		byUser:           make(map[string]map[string]*Client),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		publish:          make(chan domain.PetState, 256),
		done:             make(chan struct{}),
		snapshots:        snapshots,
		leaderboardSize:  cfg.LeaderboardSize,
		broadcastUpdates: cfg.BroadcastUpdates,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		now:              time.Now,
	}
	if h.leaderboardSize <= 0 {
		h.leaderboardSize = domain.DefaultLeaderboardSize
	}
	if h.metrics == nil {
		h.metrics = metrics.Noop{}
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Run starts the hub's main event loop and blocks until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.addClient(client)

			// Snapshot for the new viewer: own state first, then the board
			if state, ok := h.snapshots.State(client.UserID); ok {
				if !h.deliver(client, h.buildUpdateEvent(state)) {
					continue
				}
			}
			h.deliver(client, h.buildLeaderboardEvent(h.snapshots.TopN(h.leaderboardSize)))

		case client := <-h.unregister:
			h.removeClient(client)

		case state := <-h.publish:
			// A viewer may already hold a newer snapshot from register
			if latest, ok := h.snapshots.State(state.UserID); ok && latest.LastUpdated.After(state.LastUpdated) {
				state = latest
			}

			update := h.buildUpdateEvent(state)
			var recipients int
			if h.broadcastUpdates {
				recipients = h.broadcast(update)
			} else {
				recipients = h.narrowcast(state.UserID, update)
			}
			h.metrics.RecordBroadcast(string(domain.EventTypeUpdate), recipients)

			board := h.buildLeaderboardEvent(h.snapshots.TopN(h.leaderboardSize))
			recipients = h.broadcast(board)
			h.metrics.RecordBroadcast(string(domain.EventTypeLeaderboard), recipients)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	conns, ok := h.byUser[c.UserID]
	if !ok {
		conns = make(map[string]*Client)
		h.byUser[c.UserID] = conns
	}
	conns[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetConnections(count)
	h.logger.Debug("client registered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID),
		zap.Int("connections", count),
	)
}

// removeClient closes the client's queue. Unknown clients are ignored so a
// client dropped by a failed send can still unregister from its ReadPump.
func (h *Hub) removeClient(c *Client) bool {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return false
	}
	delete(h.clients, c.ID)
	if conns, ok := h.byUser[c.UserID]; ok {
		delete(conns, c.ID)
		if len(conns) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.closeSend()

	h.metrics.SetConnections(count)
	h.logger.Debug("client unregistered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID),
		zap.Int("connections", count),
	)
	return true
}

// deliver queues data without blocking. A full queue drops the client.
func (h *Hub) deliver(c *Client, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		if h.removeClient(c) {
			h.metrics.RecordDroppedSend()
			h.logger.Warn("dropping slow client",
				zap.String("client_id", c.ID),
				zap.String("user_id", c.UserID),
			)
		}
		return false
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.removeClient(c)
	}
}
