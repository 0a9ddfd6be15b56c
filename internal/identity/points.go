package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnknownLogin is returned when the provider has no balance for a login
var ErrUnknownLogin = errors.New("points: unknown login")

// PointsProvider reports a user's external points balance
type PointsProvider interface {
	Balance(ctx context.Context, login string) (int64, error)
}

// HTTPPointsProvider queries GET {baseURL}/balances/{login}
type HTTPPointsProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPPointsProvider creates a provider whose requests never exceed timeout
func NewHTTPPointsProvider(baseURL, apiKey string, timeout time.Duration) *HTTPPointsProvider {
	return &HTTPPointsProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPPointsProvider) Balance(ctx context.Context, login string) (int64, error) {
	endpoint := p.baseURL + "/balances/" + url.PathEscape(login)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build points request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("points request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, ErrUnknownLogin
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("points provider returned %d", resp.StatusCode)
	}

	var body struct {
		Balance int64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode points response: %w", err)
	}
	return body.Balance, nil
}

var _ PointsProvider = (*HTTPPointsProvider)(nil)
