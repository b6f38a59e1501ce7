package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for meeting lifecycle operations.
	TracerName = "parley"
)

// Span attribute keys
const (
	AttrUserID    = "user_id"
	AttrMeetingID = "meeting_id"
	AttrAgentID   = "agent_id"
	AttrOperation = "operation"
	AttrAttempt   = "attempt"
)

// Tracer provides distributed tracing for meeting lifecycle operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// StartOperation starts a span for a service operation.
func (t *Tracer) StartOperation(ctx context.Context, operation, userID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "meetings."+operation,
		trace.WithAttributes(
			attribute.String(AttrOperation, operation),
			attribute.String(AttrUserID, userID),
		))
}

// StartProvision starts a span for a provisioning attempt.
func (t *Tracer) StartProvision(ctx context.Context, meetingID string, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "meetings.provision",
		trace.WithAttributes(
			attribute.String(AttrMeetingID, meetingID),
			attribute.Int(AttrAttempt, attempt),
		))
}

// EndSpan records the outcome and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
