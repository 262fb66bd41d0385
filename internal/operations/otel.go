package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/UdayIND/MC3-Summit/internal/infrastructure"
)

const (
	TracerName = "mc3data/operations"
)

// RunTracer provides OpenTelemetry instrumentation for pipeline runs
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewRunTracer creates a run tracer. metrics may be nil.
func NewRunTracer(metrics *infrastructure.PipelineMetrics) *RunTracer {
	return &RunTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// TraceRun creates a span for the entire run
func (t *RunTracer) TraceRun(ctx context.Context, runID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
}

// TraceStage creates a span for one stage
func (t *RunTracer) TraceStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
}

// EndStage closes a stage span and records its duration
func (t *RunTracer) EndStage(ctx context.Context, span trace.Span, stageID string, start time.Time, err error) {
	t.metrics.RecordStage(ctx, stageID, time.Since(start), err == nil)
	finish(span, err)
}

// EndRun closes the run span and records the run metrics
func (t *RunTracer) EndRun(ctx context.Context, span trace.Span, start time.Time, err error) {
	t.metrics.RecordRun(ctx, time.Since(start), err == nil)
	finish(span, err)
}

// RecordExtraction counts one extraction outcome
func (t *RunTracer) RecordExtraction(ctx context.Context, indicator, status string, records, dropped int) {
	t.metrics.RecordExtraction(ctx, indicator, status, records, dropped)
}

// RecordFileWritten counts one output file
func (t *RunTracer) RecordFileWritten(ctx context.Context, kind string) {
	t.metrics.RecordFileWritten(ctx, kind)
	infrastructure.AddSpanEvent(ctx, "file.written", attribute.String("kind", kind))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
