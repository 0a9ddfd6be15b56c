package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
	"github.com/mmuslimabdulj/gelly-pet/internal/events"
	"github.com/mmuslimabdulj/gelly-pet/internal/metrics"
	"github.com/mmuslimabdulj/gelly-pet/internal/repository"
)

// StatePublisher pushes a persisted state to live viewers
type StatePublisher interface {
	Publish(state domain.PetState)
}

// ServiceConfig holds the service's timeouts and sizes
type ServiceConfig struct {
	// StoreTimeout bounds every pet store and cooldown store call
	StoreTimeout time.Duration
	// EventTimeout bounds enqueueing an interaction event
	EventTimeout    time.Duration
	LeaderboardSize int
}

// ServiceDeps are the collaborators of InteractionService. Events, Metrics,
// Logger and Now are optional.
type ServiceDeps struct {
	Repo      repository.PetRepository
	Engine    *Engine
	Cooldowns *CooldownGuard
	Ranker    *Ranker
	Hub       StatePublisher
	Events    events.Publisher
	Metrics   metrics.Recorder
	Logger    *zap.Logger
	Now       func() time.Time
	Config    ServiceConfig
}

// InteractRequest is one inbound action
type InteractRequest struct {
	UserID   string
	Action   string
	Identity *domain.Identity
}

// InteractionService runs validate -> mutate -> persist -> rank -> broadcast
// for one request, serialized per user.
type InteractionService struct {
	repo      repository.PetRepository
	engine    *Engine
	cooldowns *CooldownGuard
	ranker    *Ranker
	hub       StatePublisher
	events    events.Publisher
	metrics   metrics.Recorder
	logger    *zap.Logger
	now       func() time.Time
	locks     *KeyedMutex
	cfg       ServiceConfig
}

// NewInteractionService creates a new InteractionService
func NewInteractionService(d ServiceDeps) *InteractionService {
	s := &InteractionService{
		repo:      d.Repo,
		engine:    d.Engine,
		cooldowns: d.Cooldowns,
		ranker:    d.Ranker,
		hub:       d.Hub,
		events:    d.Events,
		metrics:   d.Metrics,
		logger:    d.Logger,
		now:       d.Now,
		locks:     NewKeyedMutex(),
		cfg:       d.Config,
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cfg.StoreTimeout <= 0 {
		s.cfg.StoreTimeout = 3 * time.Second
	}
	if s.cfg.EventTimeout <= 0 {
		s.cfg.EventTimeout = time.Second
	}
	if s.cfg.LeaderboardSize <= 0 {
		s.cfg.LeaderboardSize = domain.DefaultLeaderboardSize
	}
	return s
}

// Interact validates and applies one action. The returned error is one of
// *domain.ValidationError, *domain.RateLimitError or *domain.UpstreamError.
func (s *InteractionService) Interact(ctx context.Context, req InteractRequest) (domain.PetState, error) {
	userID := strings.TrimSpace(req.UserID)
	if req.Identity != nil && req.Identity.UserID != "" {
		userID = req.Identity.UserID
	}
	if userID == "" {
		s.metrics.RecordInteraction("unknown", metrics.ResultRejected)
		return domain.PetState{}, domain.NewValidationError(domain.ReasonMissingUser, "user is required")
	}

	action, err := domain.ParseAction(req.Action)
	if err != nil {
		s.metrics.RecordInteraction("unknown", metrics.ResultRejected)
		return domain.PetState{}, err
	}
	kind := string(action.Kind)

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		s.metrics.RecordInteraction(kind, metrics.ResultUpstream)
		return domain.PetState{}, &domain.UpstreamError{Op: "lock", Err: err}
	}
	defer unlock()

	now := s.now()

	decision, err := s.checkCooldown(ctx, userID, action.Kind, now)
	if err != nil {
		s.metrics.RecordInteraction(kind, metrics.ResultUpstream)
		return domain.PetState{}, &domain.UpstreamError{Op: "cooldown.check", Err: err}
	}
	if !decision.Allowed {
		s.metrics.RecordInteraction(kind, metrics.ResultRateLimited)
		return domain.PetState{}, &domain.RateLimitError{Action: action.Kind, RetryAfter: decision.RetryAfter}
	}

	current, err := s.load(ctx, userID, now)
	if err != nil {
		s.metrics.RecordInteraction(kind, metrics.ResultUpstream)
		return domain.PetState{}, err
	}
	if req.Identity != nil {
		current = current.WithIdentity(*req.Identity)
	}

	next, outcome, err := s.engine.Apply(current, action, now)
	if err != nil {
		s.metrics.RecordInteraction(kind, metrics.ResultRejected)
		return domain.PetState{}, err
	}

	pruneCooldowns(next.Cooldowns, now)
	if d := s.cooldowns.Duration(action.Kind); d > 0 {
		if next.Cooldowns == nil {
			next.Cooldowns = make(map[domain.ActionKind]time.Time)
		}
		next.Cooldowns[action.Kind] = now.Add(d)
	}

	if err := s.persist(ctx, next); err != nil {
		s.metrics.RecordInteraction(kind, metrics.ResultUpstream)
		return domain.PetState{}, err
	}

	if err := s.commitCooldown(ctx, userID, action.Kind, now); err != nil {
		s.logger.Warn("failed to commit cooldown",
			zap.String("user_id", userID),
			zap.String("action", kind),
			zap.Error(err),
		)
	}

	s.ranker.Update(next)
	s.hub.Publish(next)

	s.emit(ctx, action, outcome, next, now)

	s.metrics.RecordInteraction(kind, metrics.ResultSuccess)
	if outcome.Evolved {
		s.metrics.RecordEvolution(string(outcome.To))
		s.logger.Info("pet evolved",
			zap.String("user_id", userID),
			zap.String("from", string(outcome.From)),
			zap.String("to", string(outcome.To)),
		)
	}

	return next.Clone(), nil
}

// GetState returns the stored state, or the defaults with found=false
func (s *InteractionService) GetState(ctx context.Context, userID string) (domain.PetState, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.PetState{}, false, domain.NewValidationError(domain.ReasonMissingUser, "user is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewPetState(userID, s.now()), false, nil
	}
	if err != nil {
		return domain.PetState{}, false, &domain.UpstreamError{Op: "store.get", Err: err}
	}
	return p, true, nil
}

// Leaderboard returns the top n entries. n <= 0 uses the configured size.
func (s *InteractionService) Leaderboard(n int) []domain.LeaderboardEntry {
	if n <= 0 {
		n = s.cfg.LeaderboardSize
	}
	if n > domain.MaxLeaderboardSize {
		n = domain.MaxLeaderboardSize
	}
	return s.ranker.TopN(n)
}

// LoadLeaderboard seeds the ranker from every stored pet
func (s *InteractionService) LoadLeaderboard(ctx context.Context) error {
	pets, err := s.repo.List(ctx)
	if err != nil {
		return &domain.UpstreamError{Op: "store.list", Err: err}
	}
	s.ranker.Seed(pets)
	s.logger.Info("leaderboard seeded", zap.Int("pets", len(pets)))
	return nil
}

// load is the upsert-with-defaults read side: a missing pet becomes the defaults
func (s *InteractionService) load(ctx context.Context, userID string, now time.Time) (domain.PetState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewPetState(userID, now), nil
	}
	if err != nil {
		return domain.PetState{}, &domain.UpstreamError{Op: "store.get", Err: err}
	}
	return p, nil
}

func (s *InteractionService) persist(ctx context.Context, p domain.PetState) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.repo.Upsert(ctx, p); err != nil {
		s.logger.Error("failed to persist pet",
			zap.String("user_id", p.UserID),
			zap.Error(err),
		)
		return &domain.UpstreamError{Op: "store.upsert", Err: err}
	}
	return nil
}

func (s *InteractionService) checkCooldown(ctx context.Context, userID string, kind domain.ActionKind, now time.Time) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.cooldowns.Check(ctx, userID, kind, now)
}

func (s *InteractionService) commitCooldown(ctx context.Context, userID string, kind domain.ActionKind, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	_, err := s.cooldowns.Commit(ctx, userID, kind, now)
	return err
}

// emit is best-effort: a stalled producer costs at most EventTimeout
func (s *InteractionService) emit(ctx context.Context, action domain.Action, out Outcome, p domain.PetState, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EventTimeout)
	defer cancel()

	evt := domain.InteractionEvent{
		ID:            uuid.New().String(),
		UserID:        p.UserID,
		Action:        action.String(),
		PointsAwarded: out.PointsAwarded,
		Evolved:       out.Evolved,
		State:         p.Clone(),
		OccurredAt:    now,
	}
	if err := s.events.PublishInteraction(ctx, evt); err != nil {
		s.logger.Warn("failed to publish interaction event",
			zap.String("user_id", p.UserID),
			zap.Error(err),
		)
	}
}

func pruneCooldowns(m map[domain.ActionKind]time.Time, now time.Time) {
	for k, t := range m {
		if !now.Before(t) {
			delete(m, k)
		}
	}
}
