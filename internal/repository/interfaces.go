// Package repository holds the persistence boundaries for pets and cooldowns.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// ErrNotFound indicates the requested record does not exist
var ErrNotFound = errors.New("repository: not found")

// PetRepository persists PetState keyed by user id.
// Writes are last-writer-wins; callers serialize per user.
type PetRepository interface {
	// Get returns ErrNotFound when the user has never interacted
	Get(ctx context.Context, userID string) (domain.PetState, error)

	// Upsert inserts the state or replaces the stored one
	Upsert(ctx context.Context, state domain.PetState) error

	// List returns every stored pet, used to seed the leaderboard
	List(ctx context.Context) ([]domain.PetState, error)
}

// CooldownStore keeps not-before timestamps per (user, action)
type CooldownStore interface {
	NotBefore(ctx context.Context, userID string, kind domain.ActionKind) (time.Time, bool, error)
	SetNotBefore(ctx context.Context, userID string, kind domain.ActionKind, notBefore time.Time) error
}
