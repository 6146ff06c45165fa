package enrichment

import "context"

// PassThroughProvider supplies no data. Subscribers only learn that the event
// happened.
type PassThroughProvider struct{}

func NewPassThroughProvider() *PassThroughProvider {
	return &PassThroughProvider{}
}

func (p *PassThroughProvider) ID() string { return "pass-through" }

func (p *PassThroughProvider) Fetch(context.Context, Request) (Record, error) {
	return nil, nil
}
