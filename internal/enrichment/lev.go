package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// LEVProvider looks up death registrations by their numeric registration id.
type LEVProvider struct {
	lookup httpLookup
}

func NewLEVProvider(baseURL, apiKey string, client *http.Client) *LEVProvider {
	return &LEVProvider{lookup: httpLookup{
		providerID: "lev",
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     client,
	}}
}

func (p *LEVProvider) ID() string { return p.lookup.providerID }

type deathRegistration struct {
	ID       int `json:"id"`
	Deceased struct {
		Forenames   string `json:"forenames"`
		Surname     string `json:"surname"`
		DateOfBirth string `json:"dateOfBirth"`
		DateOfDeath string `json:"dateOfDeath"`
		Sex         string `json:"sex"`
		Address     string `json:"address"`
	} `json:"deceased"`
}

func (p *LEVProvider) Fetch(ctx context.Context, req Request) (Record, error) {
	id, err := strconv.Atoi(req.DataID)
	if err != nil {
		return nil, NewProviderError(ErrorBadData, p.ID(), "registration id must be numeric", err)
	}

	var reg deathRegistration
	found, err := p.lookup.getJSON(ctx, fmt.Sprintf("/v1/registration/death/%d", id), &reg)
	if err != nil || !found {
		return nil, err
	}

	return Record{
		domain.FieldFirstName:   reg.Deceased.Forenames,
		domain.FieldLastName:    reg.Deceased.Surname,
		domain.FieldDateOfBirth: reg.Deceased.DateOfBirth,
		domain.FieldDateOfDeath: reg.Deceased.DateOfDeath,
		domain.FieldSex:         reg.Deceased.Sex,
		domain.FieldAddress:     reg.Deceased.Address,
	}, nil
}
