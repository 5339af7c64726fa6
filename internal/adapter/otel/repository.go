package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/progrid/progrid/internal/domain"
)

const tracerName = "github.com/progrid/progrid/internal/adapter/otel"

// TracingRepository wraps a domain.TournamentRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors.
type TracingRepository struct {
	next   domain.TournamentRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.TournamentRepository.
var _ domain.TournamentRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.TournamentRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, tournament domain.Tournament) error {
	ctx, span := r.tracer.Start(ctx, "TournamentRepository.Create",
		trace.WithAttributes(
			attribute.String("tournament.id", tournament.ID),
			attribute.String("tournament.scheme", string(tournament.Scheme)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, tournament)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Tournament, error) {
	ctx, span := r.tracer.Start(ctx, "TournamentRepository.GetByID",
		trace.WithAttributes(attribute.String("tournament.id", id)),
	)
	defer span.End()

	tournament, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return tournament, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tournament, error) {
	ctx, span := r.tracer.Start(ctx, "TournamentRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	tournaments, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(tournaments)))
	}
	return tournaments, err
}

func (r *TracingRepository) Update(ctx context.Context, tournament domain.Tournament) error {
	ctx, span := r.tracer.Start(ctx, "TournamentRepository.Update",
		trace.WithAttributes(
			attribute.String("tournament.id", tournament.ID),
			attribute.String("tournament.status", string(tournament.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, tournament)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
