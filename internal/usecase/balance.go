package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
	"github.com/mmuslimabdulj/gelly-pet/internal/identity"
)

// Balance is a user's external points balance
type Balance struct {
	UserID  string `json:"userId"`
	Login   string `json:"login"`
	Balance int64  `json:"balance"`
}

// BalanceService looks up balances with a bounded timeout
type BalanceService struct {
	provider identity.PointsProvider
	timeout  time.Duration
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(provider identity.PointsProvider, timeout time.Duration) *BalanceService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &BalanceService{provider: provider, timeout: timeout}
}

// Balance queries the provider by login. Unknown logins have a zero balance.
func (s *BalanceService) Balance(ctx context.Context, id domain.Identity) (Balance, error) {
	if id.Login == "" {
		return Balance{}, domain.NewValidationError(domain.ReasonMissingUser, "identity has no login")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	amount, err := s.provider.Balance(ctx, id.Login)
	if errors.Is(err, identity.ErrUnknownLogin) {
		amount, err = 0, nil
	}
	if err != nil {
		return Balance{}, &domain.UpstreamError{Op: "points.balance", Err: err}
	}
	return Balance{UserID: id.UserID, Login: id.Login, Balance: amount}, nil
}
