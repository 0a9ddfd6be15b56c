package usecase

import (
	"time"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// EngineConfig tunes passive decay
type EngineConfig struct {
	DecayEnabled  bool
	DecayInterval time.Duration
}

// DefaultEngineConfig enables stepped decay every domain.DecayInterval
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DecayEnabled:  true,
		DecayInterval: domain.DecayInterval,
	}
}

// Outcome summarizes what an accepted action did
type Outcome struct {
	PointsAwarded int64
	Evolved       bool
	From          domain.Stage
	To            domain.Stage
	DecaySteps    int
}

// Engine validates actions and applies them to a PetState.
// It is pure: no I/O, no clocks, no shared state.
type Engine struct {
	cfg EngineConfig
}

// NewEngine creates a new Engine
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.DecayInterval <= 0 {
		cfg.DecayInterval = domain.DecayInterval
	}
	return &Engine{cfg: cfg}
}

// Apply returns the mutated copy of state. On error state is untouched and
// no points are awarded.
func (e *Engine) Apply(state domain.PetState, action domain.Action, now time.Time) (domain.PetState, Outcome, error) {
	if state.UserID == "" {
		return state, Outcome{}, domain.NewValidationError(domain.ReasonMissingUser, "user is required")
	}
	if err := validate(action); err != nil {
		return state, Outcome{}, err
	}

	next := state.Clone()
	out := Outcome{From: state.Stage, To: state.Stage}

	out.DecaySteps = e.decay(&next, now)

	if action.Kind == domain.ActionColor {
		next.Color = action.Color
		out.PointsAwarded = domain.CosmeticReward
	} else {
		applyCare(&next, action.Kind)
		out.PointsAwarded = domain.CareReward
		if evolve(&next) {
			out.Evolved = true
			out.To = next.Stage
		}
	}

	next.Points += out.PointsAwarded
	next.LastUpdated = now

	return next, out, nil
}

func validate(action domain.Action) error {
	switch {
	case action.Kind.IsCare():
		return nil
	case action.Kind == domain.ActionColor:
		if !action.Color.IsValid() {
			return domain.NewValidationError(domain.ReasonInvalidColor, "invalid color: "+string(action.Color))
		}
		return nil
	}
	return domain.NewValidationError(domain.ReasonUnknownAction, "unknown action: "+string(action.Kind))
}

// decay subtracts one step per whole interval elapsed since LastUpdated
func (e *Engine) decay(p *domain.PetState, now time.Time) int {
	if !e.cfg.DecayEnabled || p.LastUpdated.IsZero() {
		return 0
	}
	elapsed := now.Sub(p.LastUpdated)
	if elapsed < e.cfg.DecayInterval {
		return 0
	}

	steps := int(elapsed / e.cfg.DecayInterval)
	p.Energy = floor(p.Energy - steps*domain.DecayEnergyPerStep)
	p.Mood = floor(p.Mood - steps*domain.DecayMoodPerStep)
	p.Cleanliness = floor(p.Cleanliness - steps*domain.DecayCleanlinessStep)
	return steps
}

func floor(v int) int {
	if v < domain.MinStat {
		return domain.MinStat
	}
	return v
}

func applyCare(p *domain.PetState, kind domain.ActionKind) {
	switch kind {
	case domain.ActionFeed:
		p.Energy = domain.Clamp(p.Energy + domain.FeedEnergyGain)
		p.Mood = domain.Clamp(p.Mood + domain.FeedMoodGain)
	case domain.ActionPlay:
		p.Mood = domain.Clamp(p.Mood + domain.PlayMoodGain)
		p.Energy = domain.Clamp(p.Energy - domain.PlayEnergyCost)
	case domain.ActionClean:
		p.Cleanliness = domain.Clamp(p.Cleanliness + domain.CleanCleanlinessGain)
		p.Mood = domain.Clamp(p.Mood + domain.CleanMoodGain)
	}
}

// evolve advances at most one stage
func evolve(p *domain.PetState) bool {
	next, ok := p.Stage.Next()
	if !ok || !meetsThreshold(next, *p) {
		return false
	}
	p.Stage = next
	return true
}

func meetsThreshold(target domain.Stage, p domain.PetState) bool {
	switch target {
	case domain.StageBlob:
		return p.Energy >= domain.BlobEnergyThreshold
	case domain.StageAdult:
		return p.Mood >= domain.AdultMoodThreshold && p.Cleanliness >= domain.AdultCleanlinessThreshold
	}
	return false
}
