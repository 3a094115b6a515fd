package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a generation failure for retry handling.
type ErrorKind int

const (
	// KindTransport covers network failures and non-throttling provider errors.
	KindTransport ErrorKind = iota
	// KindRateLimited means the provider throttled the call or a budget is spent.
	KindRateLimited
	// KindEmptyResponse means the call succeeded but returned no text.
	KindEmptyResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimited:
		return "rate_limited"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

var (
	// ErrMissingAPIKey is returned by provider constructors without credentials.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrEmptyResponse is wrapped by KindEmptyResponse errors.
	ErrEmptyResponse = errors.New("model returned no text")
	// ErrBudgetExhausted is wrapped when the daily token budget is used up.
	ErrBudgetExhausted = errors.New("daily token budget exhausted")
)

// GenerationError is a classified provider failure.
type GenerationError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first GenerationError in err's chain.
// Unclassified errors are treated as transport failures.
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindTransport
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool {
	return err != nil && KindOf(err) == KindRateLimited
}

// classifyStatus maps an HTTP status and error text to a kind.
func classifyStatus(code int, message string) ErrorKind {
	if code == http.StatusTooManyRequests {
		return KindRateLimited
	}
	msg := strings.ToLower(message)
	for _, marker := range []string{"resource_exhausted", "quota", "rate limit"} {
		if strings.Contains(msg, marker) {
			return KindRateLimited
		}
	}
	return KindTransport
}
