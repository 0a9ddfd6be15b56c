package usecase

import (
	"context"
	"time"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
	"github.com/mmuslimabdulj/gelly-pet/internal/repository"
)

// Decision is the result of a cooldown check
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// CooldownGuard enforces per-user, per-action minimum spacing.
// Check never mutates; Commit is only called once an action has been applied.
type CooldownGuard struct {
	store     repository.CooldownStore
	durations map[domain.ActionKind]time.Duration
}

// DefaultCooldowns returns the default duration for every action kind
func DefaultCooldowns() map[domain.ActionKind]time.Duration {
	return map[domain.ActionKind]time.Duration{
		domain.ActionFeed:  domain.DefaultFeedCooldown,
		domain.ActionPlay:  domain.DefaultPlayCooldown,
		domain.ActionClean: domain.DefaultCleanCooldown,
		domain.ActionColor: domain.DefaultColorCooldown,
	}
}

// NewCooldownGuard creates a guard. Kinds missing from durations are uncooled.
func NewCooldownGuard(store repository.CooldownStore, durations map[domain.ActionKind]time.Duration) *CooldownGuard {
	d := make(map[domain.ActionKind]time.Duration, len(durations))
	for k, v := range durations {
		d[k] = v
	}
	return &CooldownGuard{store: store, durations: d}
}

// Duration returns the configured cooldown for kind
func (g *CooldownGuard) Duration(kind domain.ActionKind) time.Duration {
	return g.durations[kind]
}

// Check reports whether the user may perform kind at now
func (g *CooldownGuard) Check(ctx context.Context, userID string, kind domain.ActionKind, now time.Time) (Decision, error) {
	if g.Duration(kind) <= 0 {
		return Decision{Allowed: true}, nil
	}

	notBefore, ok, err := g.store.NotBefore(ctx, userID, kind)
	if err != nil {
		return Decision{}, err
	}
	if !ok || !now.Before(notBefore) {
		return Decision{Allowed: true}, nil
	}
	return Decision{Allowed: false, RetryAfter: notBefore.Sub(now)}, nil
}

// Commit records not-before = now + duration and returns it.
// The zero time is returned for uncooled kinds.
func (g *CooldownGuard) Commit(ctx context.Context, userID string, kind domain.ActionKind, now time.Time) (time.Time, error) {
	d := g.Duration(kind)
	if d <= 0 {
		return time.Time{}, nil
	}
	notBefore := now.Add(d)
	if err := g.store.SetNotBefore(ctx, userID, kind, notBefore); err != nil {
		return time.Time{}, err
	}
	return notBefore, nil
}
