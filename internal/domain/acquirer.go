package domain

import (
	"time"
)

type Acquirer struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	WhenCreated time.Time  `json:"when_created"`
	WhenDeleted *time.Time `json:"when_deleted,omitempty"`
}

type AcquirerRequest struct {
	Name string `json:"name"`
}

func (r AcquirerRequest) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}
