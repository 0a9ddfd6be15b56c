package usecase

import (
	"sort"
	"sync"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// Metric selects the primary ranking key
type Metric string

const (
	MetricPoints Metric = "points"
	MetricMood   Metric = "mood"
)

// ParseMetric falls back to points for unknown values
func ParseMetric(raw string) Metric {
	if Metric(raw) == MetricMood {
		return MetricMood
	}
	return MetricPoints
}

// Ranker keeps the latest PetState per user and ranks them on demand
type Ranker struct {
	mu     sync.RWMutex
	pets   map[string]domain.PetState
	metric Metric
}

// NewRanker creates a new Ranker
func NewRanker(metric Metric) *Ranker {
	return &Ranker{
		pets:   make(map[string]domain.PetState),
		metric: metric,
	}
}

// Seed loads the full set of known pets, typically at startup
func (r *Ranker) Seed(pets []domain.PetState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pets {
		r.pets[p.UserID] = p.Clone()
	}
}

// Update records the latest persisted state. Older states are ignored.
func (r *Ranker) Update(p domain.PetState) {
	c := p.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.pets[p.UserID]; ok && p.LastUpdated.Before(cur.LastUpdated) {
		return
	}
	r.pets[p.UserID] = c
}

// State returns the latest known state for a user
func (r *Ranker) State(userID string) (domain.PetState, bool) {
	r.mu.RLock()
	p, ok := r.pets[userID]
	r.mu.RUnlock()
	if !ok {
		return domain.PetState{}, false
	}
	return p.Clone(), true
}

// Len returns the number of ranked pets
func (r *Ranker) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pets)
}

// TopN returns the first n entries of the full ranking
func (r *Ranker) TopN(n int) []domain.LeaderboardEntry {
	if n <= 0 {
		return []domain.LeaderboardEntry{}
	}

	// Copy under the read lock, sort outside it
	r.mu.RLock()
	all := make([]domain.PetState, 0, len(r.pets))
	for _, p := range r.pets {
		all = append(all, p)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return r.less(all[i], all[j])
	})

	if len(all) > n {
		all = all[:n]
	}

	entries := make([]domain.LeaderboardEntry, len(all))
	for i, p := range all {
		entries[i] = domain.NewLeaderboardEntry(i+1, p)
	}
	return entries
}

// less orders by metric desc, stage desc, lastUpdated asc, userId asc
func (r *Ranker) less(a, b domain.PetState) bool {
	if ka, kb := r.key(a), r.key(b); ka != kb {
		return ka > kb
	}
	if sa, sb := a.Stage.Rank(), b.Stage.Rank(); sa != sb {
		return sa > sb
	}
	if !a.LastUpdated.Equal(b.LastUpdated) {
		return a.LastUpdated.Before(b.LastUpdated)
	}
	return a.UserID < b.UserID
}

func (r *Ranker) key(p domain.PetState) int64 {
	if r.metric == MetricMood {
		return int64(p.Mood)
	}
	return p.Points
}
