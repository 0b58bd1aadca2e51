package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/ActionForge/internal/adapter/otel"
	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/port/messagequeue"
)

// Outbox publishes materialized work to the message queue. A nil queue
// turns every publish into a no-op. Failures are logged and never returned;
// downstream delivery is at-most-once.
type Outbox struct {
	queue   messagequeue.Queue
	metrics *otel.Metrics
}

// NewOutbox creates an Outbox. queue and metrics may be nil.
func NewOutbox(queue messagequeue.Queue, metrics *otel.Metrics) *Outbox {
	if metrics == nil {
		metrics = otel.NopMetrics()
	}
	return &Outbox{queue: queue, metrics: metrics}
}

// PublishOutput sends every task, draft and audit record.
func (o *Outbox) PublishOutput(ctx context.Context, tasks []action.TaskItem, drafts []action.Draft, recs []audit.Record) {
	if o == nil || o.queue == nil {
		return
	}
	for i := range tasks {
		t := &tasks[i]
		o.publish(ctx, messagequeue.SubjectActionTasks, messagequeue.TaskPayload{
			ID:           t.ID,
			CandidateID:  t.CandidateID,
			Kind:         string(t.Kind),
			Title:        t.Title,
			AssigneeRole: string(t.AssigneeRole),
			Priority:     t.Priority,
			Status:       string(t.Status),
		})
	}
	for i := range drafts {
		d := &drafts[i]
		o.publish(ctx, messagequeue.SubjectActionDrafts, messagequeue.DraftPayload{
			ID:            d.ID,
			CandidateID:   d.CandidateID,
			TaskID:        d.TaskID,
			Channel:       string(d.Channel),
			Body:          d.Body,
			NeedsApproval: d.NeedsApproval,
			Status:        string(d.Status),
		})
	}
	for i := range recs {
		r := &recs[i]
		o.publish(ctx, messagequeue.SubjectAuditRecords, messagequeue.AuditPayload{
			ID:      r.ID,
			Actor:   r.Actor,
			Type:    string(r.Type),
			Payload: r.Payload,
		})
	}
}

// PublishHandoff sends one follow-up request for a handoff target.
func (o *Outbox) PublishHandoff(ctx context.Context, p *messagequeue.HandoffRequestPayload) {
	if o == nil || o.queue == nil {
		return
	}
	o.publish(ctx, messagequeue.SubjectHandoffsRequest, p)
	slog.InfoContext(ctx, "handoff dispatched", "from", p.FromAgent, "to", p.ToAgent, "depth", p.CausationDepth)
}

func (o *Outbox) publish(ctx context.Context, subject string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = o.queue.Publish(ctx, subject, data)
	}
	if err != nil {
		slog.WarnContext(ctx, "outbox publish failed", "subject", subject, "error", err)
		o.metrics.PublishFailures.Add(ctx, 1)
	}
}
