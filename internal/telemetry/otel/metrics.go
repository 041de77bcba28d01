package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "policysonar/backend"

// Metrics holds the dashboard's domain counters. A nil *Metrics is valid and
// records nothing, so handlers can run without telemetry wired.
type Metrics struct {
	analogAnalyses    metric.Int64Counter
	simulationRuns    metric.Int64Counter
	consensusRequests metric.Int64Counter
}

// NewMetrics registers the counters on the given provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)
	m := &Metrics{}

	var err error
	if m.analogAnalyses, err = meter.Int64Counter("policysonar.analog_analyses",
		metric.WithDescription("Policy analog analyses run")); err != nil {
		return nil, err
	}
	if m.simulationRuns, err = meter.Int64Counter("policysonar.simulation_runs",
		metric.WithDescription("Policy simulations run")); err != nil {
		return nil, err
	}
	if m.consensusRequests, err = meter.Int64Counter("policysonar.consensus_requests",
		metric.WithDescription("Academic consensus lookups")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAnalogAnalysis counts one analog analysis.
func (m *Metrics) RecordAnalogAnalysis(ctx context.Context) {
	if m == nil {
		return
	}
	m.analogAnalyses.Add(ctx, 1)
}

// RecordSimulationRun counts one simulation run for the given model.
func (m *Metrics) RecordSimulationRun(ctx context.Context, model string) {
	if m == nil {
		return
	}
	m.simulationRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

// RecordConsensusRequest counts one consensus lookup.
func (m *Metrics) RecordConsensusRequest(ctx context.Context) {
	if m == nil {
		return
	}
	m.consensusRequests.Add(ctx, 1)
}
