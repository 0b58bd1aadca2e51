package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "actionforge"

// StartOrchestrateSpan starts a span for one synchronous orchestration.
func StartOrchestrateSpan(ctx context.Context, eventID, eventType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "orchestrate",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.String("event.type", eventType),
		),
	)
}

// StartSwarmRunSpan starts a span for a traced swarm run.
func StartSwarmRunSpan(ctx context.Context, runID, eventType string, depth int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "swarm.run",
		trace.WithAttributes(
			attribute.String("swarm.run.id", runID),
			attribute.String("event.type", eventType),
			attribute.Int("event.causation_depth", depth),
		),
	)
}

// StartAgentStepSpan starts a span for one agent step inside a run.
func StartAgentStepSpan(ctx context.Context, runID, agentID string, stepNo int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "swarm.step",
		trace.WithAttributes(
			attribute.String("swarm.run.id", runID),
			attribute.String("agent.id", agentID),
			attribute.Int("swarm.step_no", stepNo),
		),
	)
}

// StartDiscussionTurnSpan starts a span for one discussion turn.
func StartDiscussionTurnSpan(ctx context.Context, sessionID, agentID, kind string, round int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "discussion.turn",
		trace.WithAttributes(
			attribute.String("discussion.session_id", sessionID),
			attribute.String("agent.id", agentID),
			attribute.String("discussion.kind", kind),
			attribute.Int("discussion.round", round),
		),
	)
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
