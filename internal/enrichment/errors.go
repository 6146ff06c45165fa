package enrichment

import (
	"errors"
	"fmt"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// ErrorCategory is the normalized failure taxonomy for providers.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorProviderOutage ErrorCategory = "provider_outage"
	ErrorUnsupported    ErrorCategory = "unsupported_dataset"
	ErrorInternal       ErrorCategory = "internal"
)

// ProviderError wraps provider failures with a normalized category.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// Is lets callers match provider failures against the domain sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case domain.ErrTimeout:
		return e.Category == ErrorTimeout
	case domain.ErrUnavailable:
		return e.Category == ErrorProviderOutage
	case domain.ErrUnsupportedDataset:
		return e.Category == ErrorUnsupported
	}
	return false
}

func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorProviderOutage,
	}
}

func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return domain.IsRetryable(err)
}

func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	switch {
	case errors.Is(err, domain.ErrUnsupportedDataset):
		return ErrorUnsupported
	case errors.Is(err, domain.ErrTimeout):
		return ErrorTimeout
	case errors.Is(err, domain.ErrUnavailable):
		return ErrorProviderOutage
	}
	return ErrorInternal
}
