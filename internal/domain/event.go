package domain

import "time"

// EventType defines the type of event pushed to live viewers
type EventType string

const (
	EventTypeUpdate      EventType = "update"
	EventTypeLeaderboard EventType = "leaderboard"
)

// Event is the envelope written to websocket viewers
type Event struct {
	ID        string             `json:"id"`
	Type      EventType          `json:"type"`
	State     *PetState          `json:"state,omitempty"`
	Entries   []LeaderboardEntry `json:"entries,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// InteractionEvent describes an accepted interaction for downstream consumers
type InteractionEvent struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Action        string    `json:"action"`
	PointsAwarded int64     `json:"pointsAwarded"`
	Evolved       bool      `json:"evolved"`
	State         PetState  `json:"state"`
	OccurredAt    time.Time `json:"occurredAt"`
}
