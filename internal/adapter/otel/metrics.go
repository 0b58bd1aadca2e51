package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "actionforge"

// Metrics holds all ActionForge metric instruments.
type Metrics struct {
	ActionsRanked   metric.Int64Counter
	RunsStarted     metric.Int64Counter
	RunsCompleted   metric.Int64Counter
	RunsFailed      metric.Int64Counter
	StepsFailed     metric.Int64Counter
	Handoffs        metric.Int64Counter
	PublishFailures metric.Int64Counter
	RunDuration     metric.Float64Histogram
	TurnDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

// NopMetrics returns instruments that record nothing.
func NopMetrics() *Metrics {
	m, err := newMetrics(noop.NewMeterProvider().Meter(meterName))
	if err != nil {
		panic(err) // noop instruments never fail
	}
	return m
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.ActionsRanked, "actionforge.actions.ranked", "Number of candidate actions ranked"},
		{&m.RunsStarted, "actionforge.swarm.runs.started", "Number of swarm runs started"},
		{&m.RunsCompleted, "actionforge.swarm.runs.completed", "Number of swarm runs completed"},
		{&m.RunsFailed, "actionforge.swarm.runs.failed", "Number of swarm runs failed"},
		{&m.StepsFailed, "actionforge.swarm.steps.failed", "Number of agent steps that failed"},
		{&m.Handoffs, "actionforge.swarm.handoffs", "Number of handoffs recorded"},
		{&m.PublishFailures, "actionforge.queue.publish_failures", "Number of failed queue publishes"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.RunDuration, err = meter.Float64Histogram("actionforge.swarm.run.duration_seconds",
		metric.WithDescription("Swarm run duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.TurnDuration, err = meter.Float64Histogram("actionforge.discussion.turn.duration_seconds",
		metric.WithDescription("Discussion turn duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
