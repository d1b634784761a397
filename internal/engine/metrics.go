package engine

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentdeck"

// metrics holds the engine's metric instruments.
type metrics struct {
	started   metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	cancelled metric.Int64Counter
	subtasks  metric.Int64Counter
	cost      metric.Float64Histogram
}

// newMetrics creates all metric instruments from the global meter provider.
func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName)
	m := &metrics{}
	var err error

	m.started, err = meter.Int64Counter("agentdeck.orchestrations.started",
		metric.WithDescription("Number of orchestrations started"))
	if err != nil {
		return nil, err
	}

	m.completed, err = meter.Int64Counter("agentdeck.orchestrations.completed",
		metric.WithDescription("Number of orchestrations completed"))
	if err != nil {
		return nil, err
	}

	m.failed, err = meter.Int64Counter("agentdeck.orchestrations.failed",
		metric.WithDescription("Number of orchestrations failed"))
	if err != nil {
		return nil, err
	}

	m.cancelled, err = meter.Int64Counter("agentdeck.orchestrations.cancelled",
		metric.WithDescription("Number of orchestrations cancelled"))
	if err != nil {
		return nil, err
	}

	m.subtasks, err = meter.Int64Counter("agentdeck.subtasks.started",
		metric.WithDescription("Number of sub-agent subtasks started"))
	if err != nil {
		return nil, err
	}

	m.cost, err = meter.Float64Histogram("agentdeck.orchestration.cost_usd",
		metric.WithDescription("Total orchestration cost in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
