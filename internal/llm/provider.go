package llm

import (
	"context"
	"errors"

	"talentgate/interview/internal/models"
)

// Provider is the gateway to the external reasoning service. GenerateText is
// used once per interview for the opening question; GenerateJSON is used for
// every answer evaluation and must request a JSON-only reply. Neither call
// retries internally: a retry would re-spend an oracle call and could
// desynchronize the conversation history, so retry policy belongs to the
// caller.
type Provider interface {
	GenerateText(ctx context.Context, messages []models.Message) (string, error)
	GenerateJSON(ctx context.Context, messages []models.Message) (string, error)
	GetProviderName() string
}

// represents an error from an LLM provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes shared across providers.
const (
	ErrCodeAPIKey        = "invalid_api_key"
	ErrCodeRateLimit     = "rate_limit_exceeded"
	ErrCodeServiceDown   = "service_unavailable"
	ErrCodeEmptyResponse = "empty_response"
	ErrCodeTimeout       = "timeout"
)

// IsNoResponse reports whether the provider failed without producing any
// reply at all (transport error, timeout, empty candidate set). The state
// machine treats these as "oracle unavailable" rather than as a malformed
// reply, so they are never scored.
func IsNoResponse(err error) bool {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return false
	}
	switch perr.Code {
	case ErrCodeServiceDown, ErrCodeTimeout, ErrCodeEmptyResponse, ErrCodeRateLimit:
		return true
	}
	return false
}
