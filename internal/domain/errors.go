package domain

import "errors"

var (
	ErrAcquirerNotFound              = errors.New("acquirer not found")
	ErrSubscriptionNotFound          = errors.New("subscription not found")
	ErrEventNotFound                 = errors.New("event not found")
	ErrPublisherNotFound             = errors.New("publisher not found")
	ErrPublisherSubscriptionNotFound = errors.New("publisher subscription not found")

	ErrUnsupportedDataset = errors.New("unsupported dataset")

	// Collaborator failures. Callers may retry.
	ErrTimeout     = errors.New("collaborator timed out")
	ErrUnavailable = errors.New("collaborator unavailable")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAcquirerNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrPublisherNotFound) ||
		errors.Is(err, ErrPublisherSubscriptionNotFound)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
