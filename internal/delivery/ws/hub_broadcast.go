package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// buildUpdateEvent creates an update event as JSON bytes
func (h *Hub) buildUpdateEvent(state domain.PetState) []byte {
	return h.encode(domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeUpdate,
		State:     &state,
		CreatedAt: h.now(),
	})
}

// buildLeaderboardEvent creates a leaderboard event as JSON bytes
func (h *Hub) buildLeaderboardEvent(entries []domain.LeaderboardEntry) []byte {
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return h.encode(domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeLeaderboard,
		Entries:   entries,
		CreatedAt: h.now(),
	})
}

func (h *Hub) encode(evt domain.Event) []byte {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("type", string(evt.Type)), zap.Error(err))
		return nil
	}
	return data
}

// broadcast sends to every client and returns how many were queued
func (h *Hub) broadcast(data []byte) int {
	if data == nil {
		return 0
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	return h.deliverAll(targets, data)
}

// narrowcast sends only to the connections of one user
func (h *Hub) narrowcast(userID string, data []byte) int {
	if data == nil {
		return 0
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.byUser[userID]))
	for _, c := range h.byUser[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	return h.deliverAll(targets, data)
}

func (h *Hub) deliverAll(targets []*Client, data []byte) int {
	var n int
	for _, c := range targets {
		if h.deliver(c, data) {
			n++
		}
	}
	return n
}
