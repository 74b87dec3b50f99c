// Package metrics instruments the simulation through the global OTel
// meter: counters for substeps, contacts and shifts, a step-duration
// histogram, and observable gauges sampled from the live simulation.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/apexdrift/simcore/internal/metrics"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Observation is one sample of the live gauge values, pulled by the OTel
// SDK on its own schedule.
type Observation struct {
	SpeedKMH      float64
	RPM           float64
	DriftAngleDeg float64
	DriftScore    float64
	BodiesAsleep  int64
}

// Recorder owns the simulation instruments. A nil Recorder is safe to
// call; every method no-ops.
type Recorder struct {
	substeps      metric.Int64Counter
	contacts      metric.Int64Counter
	droppedFrames metric.Int64Counter
	shifts        metric.Int64Counter
	stepDuration  metric.Float64Histogram
}

// NewRecorder creates the instruments and registers the gauge callback.
// observe is sampled by the SDK; it must be cheap and non-blocking.
func NewRecorder(observe func() Observation) (*Recorder, error) {
	m := meter()
	r := &Recorder{}

	var err error

	r.substeps, err = m.Int64Counter(
		"sim.substeps",
		metric.WithDescription("Fixed substeps executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating substep counter: %w", err)
	}

	r.contacts, err = m.Int64Counter(
		"sim.contacts",
		metric.WithDescription("Contacts resolved by the solver"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating contact counter: %w", err)
	}

	r.droppedFrames, err = m.Int64Counter(
		"sim.frames.dropped",
		metric.WithDescription("Frames dropped for out-of-range delta time"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped frame counter: %w", err)
	}

	r.shifts, err = m.Int64Counter(
		"sim.gear.shifts",
		metric.WithDescription("Gear shifts started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shift counter: %w", err)
	}

	r.stepDuration, err = m.Float64Histogram(
		"sim.step.duration",
		metric.WithDescription("Wall-clock duration of one outer step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating step duration histogram: %w", err)
	}

	if observe != nil {
		if err := registerGauges(m, observe); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func registerGauges(m metric.Meter, observe func() Observation) error {
	speed, err := m.Float64ObservableGauge(
		"sim.speed.kmh",
		metric.WithDescription("Vehicle speed"),
	)
	if err != nil {
		return fmt.Errorf("creating speed gauge: %w", err)
	}

	rpm, err := m.Float64ObservableGauge(
		"sim.engine.rpm",
		metric.WithDescription("Engine RPM"),
	)
	if err != nil {
		return fmt.Errorf("creating rpm gauge: %w", err)
	}

	driftAngle, err := m.Float64ObservableGauge(
		"sim.drift.angle",
		metric.WithDescription("Smoothed drift angle in degrees"),
	)
	if err != nil {
		return fmt.Errorf("creating drift angle gauge: %w", err)
	}

	driftScore, err := m.Float64ObservableGauge(
		"sim.drift.score",
		metric.WithDescription("Unbanked drift score"),
	)
	if err != nil {
		return fmt.Errorf("creating drift score gauge: %w", err)
	}

	asleep, err := m.Int64ObservableGauge(
		"sim.bodies.asleep",
		metric.WithDescription("Bodies currently sleeping"),
	)
	if err != nil {
		return fmt.Errorf("creating sleep gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			obs := observe()
			o.ObserveFloat64(speed, obs.SpeedKMH)
			o.ObserveFloat64(rpm, obs.RPM)
			o.ObserveFloat64(driftAngle, obs.DriftAngleDeg)
			o.ObserveFloat64(driftScore, obs.DriftScore)
			o.ObserveInt64(asleep, obs.BodiesAsleep)
			return nil
		},
		speed, rpm, driftAngle, driftScore, asleep,
	)
	if err != nil {
		return fmt.Errorf("registering gauge callback: %w", err)
	}
	return nil
}

// Substeps records n executed substeps.
func (r *Recorder) Substeps(n int) {
	if r == nil {
		return
	}
	r.substeps.Add(context.Background(), int64(n))
}

// Contact records one resolved contact.
func (r *Recorder) Contact() {
	if r == nil {
		return
	}
	r.contacts.Add(context.Background(), 1)
}

// DroppedFrame records one frame rejected by the delta-time guard.
func (r *Recorder) DroppedFrame() {
	if r == nil {
		return
	}
	r.droppedFrames.Add(context.Background(), 1)
}

// Shift records one started gear shift.
func (r *Recorder) Shift() {
	if r == nil {
		return
	}
	r.shifts.Add(context.Background(), 1)
}

// StepDuration records the wall-clock time one outer step took.
func (r *Recorder) StepDuration(seconds float64) {
	if r == nil {
		return
	}
	r.stepDuration.Record(context.Background(), seconds)
}
