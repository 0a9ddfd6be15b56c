package repository

import (
	"context"
	"sync"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// MemoryPetRepo is an in-process PetRepository for development and tests
type MemoryPetRepo struct {
	mu   sync.RWMutex
	pets map[string]domain.PetState
}

// NewMemoryPetRepo creates a new MemoryPetRepo
func NewMemoryPetRepo() *MemoryPetRepo {
	return &MemoryPetRepo{pets: make(map[string]domain.PetState)}
}

func (r *MemoryPetRepo) Get(ctx context.Context, userID string) (domain.PetState, error) {
	if err := ctx.Err(); err != nil {
		return domain.PetState{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pets[userID]
	if !ok {
		return domain.PetState{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryPetRepo) Upsert(ctx context.Context, state domain.PetState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pets[state.UserID] = state.Clone()
	return nil
}

func (r *MemoryPetRepo) List(ctx context.Context) ([]domain.PetState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PetState, 0, len(r.pets))
	for _, p := range r.pets {
		out = append(out, p.Clone())
	}
	return out, nil
}

var _ PetRepository = (*MemoryPetRepo)(nil)
