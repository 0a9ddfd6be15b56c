package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// Error codes returned alongside the message
const (
	codeRateLimited  = "rate_limited"
	codeUnauthorized = "unauthorized"
	codeUpstream     = "upstream_unavailable"
	codeBadRequest   = "bad_request"
	codeNotEnabled   = "not_configured"
)

// interactResponse is the body of POST /v1/interact
type interactResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message,omitempty"`
	Code         string           `json:"code,omitempty"`
	State        *domain.PetState `json:"state,omitempty"`
	RetryAfterMs int64            `json:"retryAfterMs,omitempty"`
}

type stateResponse struct {
	Found bool            `json:"found"`
	State domain.PetState `json:"state"`
}

type leaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, interactResponse{Success: false, Code: code, Message: message})
}

// writeError maps service errors onto status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		rl *domain.RateLimitError
		ue *domain.UpstreamError
	)

	switch {
	case errors.As(err, &ve):
		writeFailure(w, http.StatusBadRequest, string(ve.Reason), ve.Message)

	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rl)))
		writeJSON(w, http.StatusTooManyRequests, interactResponse{
			Success:      false,
			Code:         codeRateLimited,
			Message:      rl.Error(),
			RetryAfterMs: rl.RetryAfter.Milliseconds(),
		})

	case errors.Is(err, domain.ErrUnauthorized):
		writeFailure(w, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token")

	case errors.As(err, &ue):
		h.logger.Error("upstream failure",
			zap.String("op", ue.Op),
			zap.String("path", r.URL.Path),
			zap.Error(ue.Err),
		)
		writeFailure(w, http.StatusServiceUnavailable, codeUpstream, "service temporarily unavailable")

	default:
		h.logger.Error("unexpected error", zap.String("path", r.URL.Path), zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// retryAfterSeconds rounds up so clients never retry too early
func retryAfterSeconds(rl *domain.RateLimitError) int {
	secs := int(math.Ceil(rl.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
