package enrichment

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// PrisonerProvider looks up prisoners by prisoner number.
type PrisonerProvider struct {
	lookup httpLookup
}

func NewPrisonerProvider(baseURL, apiKey string, client *http.Client) *PrisonerProvider {
	return &PrisonerProvider{lookup: httpLookup{
		providerID: "prisoner-search",
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     client,
	}}
}

func (p *PrisonerProvider) ID() string { return p.lookup.providerID }

type prisonerDetails struct {
	PrisonerNumber string `json:"prisonerNumber"`
	FirstName      string `json:"firstName"`
	MiddleNames    string `json:"middleNames"`
	LastName       string `json:"lastName"`
	Gender         string `json:"gender"`
	DateOfBirth    string `json:"dateOfBirth"`
}

func (p *PrisonerProvider) Fetch(ctx context.Context, req Request) (Record, error) {
	if req.DataID == "" {
		return nil, NewProviderError(ErrorBadData, p.ID(), "prisoner number is empty", nil)
	}

	var d prisonerDetails
	found, err := p.lookup.getJSON(ctx, "/prisoner/"+url.PathEscape(req.DataID), &d)
	if err != nil || !found {
		return nil, err
	}

	return Record{
		domain.FieldPrisonerNumber: d.PrisonerNumber,
		domain.FieldFirstName:      d.FirstName,
		domain.FieldMiddleNames:    d.MiddleNames,
		domain.FieldLastName:       d.LastName,
		domain.FieldSex:            d.Gender,
		domain.FieldDateOfBirth:    d.DateOfBirth,
	}, nil
}
