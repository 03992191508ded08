package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cabledesk/internal/observability/tracing"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumented records a span and Prometheus sample around every store call.
type instrumented struct {
	next    domain.Repository
	backend string
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

func Instrument(next domain.Repository, backend string, metrics *telemetry.Metrics) domain.Repository {
	return &instrumented{
		next:    next,
		backend: backend,
		metrics: metrics,
		tracer:  otel.Tracer("cabledesk/store"),
	}
}

func (r *instrumented) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := r.tracer.Start(ctx, "store."+op, trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("store.backend", r.backend),
		attribute.String("store.operation", op),
	)...))
	start := time.Now()
	return ctx, func(err error) {
		r.metrics.ObserveStoreOperation(r.backend, op, err, time.Since(start))
		if err != nil {
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, op+" failed")
		}
		span.End()
	}
}

func (r *instrumented) List(ctx context.Context) (out []domain.Subscriber, err error) {
	ctx, done := r.observe(ctx, "list")
	defer func() { done(err) }()
	return r.next.List(ctx)
}

func (r *instrumented) Insert(ctx context.Context, s *domain.Subscriber) (err error) {
	ctx, done := r.observe(ctx, "insert")
	defer func() { done(err) }()
	return r.next.Insert(ctx, s)
}

func (r *instrumented) BatchInsert(ctx context.Context, s []*domain.Subscriber) (err error) {
	ctx, done := r.observe(ctx, "batch_insert")
	defer func() { done(err) }()
	return r.next.BatchInsert(ctx, s)
}

func (r *instrumented) Update(ctx context.Context, id snowflake.ID, s *domain.Subscriber) (err error) {
	ctx, done := r.observe(ctx, "update")
	defer func() { done(err) }()
	return r.next.Update(ctx, id, s)
}

func (r *instrumented) Delete(ctx context.Context, id snowflake.ID) (err error) {
	ctx, done := r.observe(ctx, "delete")
	defer func() { done(err) }()
	return r.next.Delete(ctx, id)
}

func (r *instrumented) FindByID(ctx context.Context, id snowflake.ID) (out *domain.Subscriber, err error) {
	ctx, done := r.observe(ctx, "find")
	defer func() { done(err) }()
	return r.next.FindByID(ctx, id)
}

func (r *instrumented) CountSince(ctx context.Context, since time.Time) (n int64, err error) {
	ctx, done := r.observe(ctx, "count")
	defer func() { done(err) }()
	return r.next.CountSince(ctx, since)
}
