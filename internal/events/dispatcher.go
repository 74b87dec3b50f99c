// Package events routes named simulation events (collision, drift
// transitions, gear shifts) to registered handlers. Handlers run
// synchronously by default; buffered registration moves them onto their
// own goroutine so slow consumers cannot stall the simulation step.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Well-known event names emitted by the simulation.
const (
	Collision  = "collision"
	DriftStart = "drift.start"
	DriftEnd   = "drift.end"
	DriftBank  = "drift.bank"
	Spinout    = "spinout"
	GearShift  = "gear.shift"
	Reset      = "reset"
)

// Event is one named simulation occurrence. SimTime is the simulation
// clock at emission; Payload carries the event-specific value (a
// core.CollisionEvent, a gear number, a banked score).
type Event struct {
	Name    string
	SimTime float64
	Payload any

	Timestamp time.Time
}

// HandlerFunc consumes an event.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead
// of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers. Multiple handlers may
// subscribe to the same name; they run in registration order.
type Dispatcher struct {
	handlers map[string][]HandlerFunc
	logger   Logger

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	// Track buffers for the gauge callback.
	mu      sync.RWMutex
	buffers map[string]chan Event
}

// New creates a Dispatcher with the given logger. Uses the global OTel
// meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		buffers:  make(map[string]chan Event),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"events.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for name, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("event", name)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Subscribe adds a handler for the given event name with optional
// configuration.
func (d *Dispatcher) Subscribe(name string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.recovered(name, h)

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(name, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(name, handler)
	}

	d.handlers[name] = append(d.handlers[name], handler)
}

// Emit delivers an event to every subscribed handler. Events with no
// subscribers are dropped silently; the simulation never depends on a
// listener being present.
func (d *Dispatcher) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	for _, h := range d.handlers[e.Name] {
		if err := h(e); err != nil && d.logger != nil {
			d.logger.Error("event handler failed", "event", e.Name, "error", err)
		}
	}
}

// HasSubscribers reports whether any handler is registered for the name.
func (d *Dispatcher) HasSubscribers(name string) bool {
	return len(d.handlers[name]) > 0
}

// recovered converts a handler panic into an error so a misbehaving
// listener cannot take down the simulation step it was called from.
func (d *Dispatcher) recovered(name string, h HandlerFunc) HandlerFunc {
	return func(e Event) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic on %s: %v", name, r)
			}
		}()
		return h(e)
	}
}

func (d *Dispatcher) withBuffer(name string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan Event, size)

	d.mu.Lock()
	d.buffers[name] = buffer
	d.mu.Unlock()

	nameAttr := attribute.String("event", name)

	go func() {
		for e := range buffer {
			if err := h(e); err != nil && d.logger != nil {
				d.logger.Error("buffered handler failed", "event", name, "error", err)
			}
			d.processed.Add(context.Background(), 1, metric.WithAttributes(nameAttr))
		}
	}()

	if blocking {
		return func(e Event) error {
			buffer <- e
			return nil
		}
	}

	return func(e Event) error {
		select {
		case buffer <- e:
			return nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(nameAttr))
			return fmt.Errorf("queue full: %s", name)
		}
	}
}

func (d *Dispatcher) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "event", name, "simTime", e.SimTime)

		err := h(e)

		if err != nil {
			d.logger.Error("event failed", "event", name, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "event", name, "duration", time.Since(start))
		}

		return err
	}
}
