package enrichment

import (
	"context"
	"encoding/csv"
	"strings"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// DelimitedProvider reads the raw payload carried on the notification as one
// CSV line: lastName,firstName,dateOfBirth,dateOfDeath,sex[,address]. Columns
// after the address are ignored.
type DelimitedProvider struct{}

func NewDelimitedProvider() *DelimitedProvider {
	return &DelimitedProvider{}
}

func (p *DelimitedProvider) ID() string { return "delimited" }

func (p *DelimitedProvider) Fetch(_ context.Context, req Request) (Record, error) {
	if req.RawPayload == nil || strings.TrimSpace(*req.RawPayload) == "" {
		return nil, NewProviderError(ErrorBadData, p.ID(), "raw payload is empty", nil)
	}

	r := csv.NewReader(strings.NewReader(*req.RawPayload))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	cols, err := r.Read()
	if err != nil {
		return nil, NewProviderError(ErrorBadData, p.ID(), "malformed payload", err)
	}
	if len(cols) < 5 {
		return nil, NewProviderError(ErrorBadData, p.ID(), "expected at least 5 columns", nil)
	}

	for _, i := range []int{2, 3} {
		if _, err := time.Parse(time.DateOnly, cols[i]); err != nil {
			return nil, NewProviderError(ErrorBadData, p.ID(), "invalid date "+cols[i], err)
		}
	}

	rec := Record{
		domain.FieldLastName:    cols[0],
		domain.FieldFirstName:   cols[1],
		domain.FieldDateOfBirth: cols[2],
		domain.FieldDateOfDeath: cols[3],
		domain.FieldSex:         cols[4],
	}
	if len(cols) > 5 {
		rec[domain.FieldAddress] = cols[5]
	}
	return rec, nil
}
