package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/metrics"
)

const tracerName = "github.com/Priya8975/life-event-share/internal/enrichment"

// Pipeline resolves a provider for a record, fetches within a bounded time
// and projects the result to the subscriber's field set.
type Pipeline struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

func NewPipeline(registry *Registry, timeout time.Duration, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enrich returns only the requested fields. A request with no fields is
// answered without calling a provider.
func (p *Pipeline) Enrich(ctx context.Context, req Request) (domain.Payload, error) {
	if len(req.Fields) == 0 {
		return nil, nil
	}

	provider, err := p.registry.Lookup(req.EventType, req.DatasetID)
	if err != nil {
		p.metrics.IncEnrichmentFailure(string(req.EventType), string(ErrorUnsupported))
		return nil, err
	}

	ctx, span := p.tracer.Start(ctx, "enrichment.Enrich", trace.WithAttributes(
		attribute.String("event_type", string(req.EventType)),
		attribute.String("dataset_id", req.DatasetID),
		attribute.String("provider", provider.ID()),
		attribute.Int("fields", len(req.Fields)),
	))
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	record, err := provider.Fetch(ctx, req)
	p.metrics.ObserveEnrichment(provider.ID(), start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
			err = NewProviderError(ErrorTimeout, provider.ID(), "enrichment deadline exceeded", err)
		}
		category := GetCategory(err)
		p.metrics.IncEnrichmentFailure(string(req.EventType), string(category))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(category))
		p.logger.Warn("enrichment failed",
			"provider", provider.ID(),
			"event_type", req.EventType,
			"data_id", req.DataID,
			"category", category,
			"error", err,
		)
		return nil, err
	}

	return Project(record, req.Fields), nil
}

// Project keeps only the requested fields. Fields the record lacks are
// omitted. A nil record projects to nil.
func Project(record Record, fields []domain.EnrichmentField) domain.Payload {
	if record == nil {
		return nil
	}
	out := make(domain.Payload, len(fields))
	for _, f := range fields {
		v, ok := record[f]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		out[f] = v
	}
	return out
}
