package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/apexdrift/simcore/internal/events"
	"github.com/apexdrift/simcore/internal/queue"
	"github.com/apexdrift/simcore/pkg/core"
)

const flushInterval = 2 * time.Second

// Recorder buffers telemetry rows in queues and drains them to the store
// on a background goroutine, so the simulation step never waits on the
// database. Frames also stream to the live writer when one is attached.
type Recorder struct {
	store *Store
	live  *LiveWriter

	sessionID   atomic.Uint64
	sessionName string

	frames     *queue.Queue[Frame]
	collisions *queue.Queue[CollisionRecord]
	drifts     *queue.Queue[DriftSegment]

	lastFlushNanos atomic.Int64

	stopChan chan struct{}
	logger   zerolog.Logger
}

// NewRecorder creates a recorder over a connected store. live may be nil.
func NewRecorder(store *Store, live *LiveWriter, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:      store,
		live:       live,
		frames:     queue.New[Frame](),
		collisions: queue.New[CollisionRecord](),
		drifts:     queue.New[DriftSegment](),
		logger:     log,
	}
}

// Start creates the session row and starts the background writer.
func (r *Recorder) Start(session *Session) error {
	if err := r.store.StartSession(session); err != nil {
		return err
	}
	r.sessionID.Store(uint64(session.ID))
	r.sessionName = session.Name

	r.stopChan = make(chan struct{})
	go r.writeLoop()
	return nil
}

// Stop flushes everything still queued and stamps the session duration.
func (r *Recorder) Stop(duration float64) error {
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	r.flush()
	return r.store.EndSession(uint(r.sessionID.Load()), duration)
}

// Attach subscribes the recorder to the simulation event stream.
func (r *Recorder) Attach(d *events.Dispatcher) {
	d.Subscribe(events.Collision, func(e events.Event) error {
		ce, ok := e.Payload.(core.CollisionEvent)
		if !ok {
			return fmt.Errorf("unexpected collision payload %T", e.Payload)
		}
		r.collisions.Push(CollisionToRecord(e.SimTime, ce))
		if r.live != nil {
			r.live.WriteEvent(r.sessionName, e.Name, e.SimTime, ce.ImpactMagnitude)
		}
		return nil
	})
	d.Subscribe(events.DriftBank, func(e events.Event) error {
		banked, ok := e.Payload.(float64)
		if !ok {
			return fmt.Errorf("unexpected bank payload %T", e.Payload)
		}
		r.drifts.Push(DriftSegment{
			Time:    time.Now(),
			SimTime: e.SimTime,
			Banked:  banked,
		})
		if r.live != nil {
			r.live.WriteEvent(r.sessionName, e.Name, e.SimTime, banked)
		}
		return nil
	})
}

// RecordFrame queues one snapshot for persistence.
func (r *Recorder) RecordFrame(s core.Snapshot) {
	frame := SnapshotToFrame(s)
	r.frames.Push(frame)
	if r.live != nil {
		r.live.WriteFrame(r.sessionName, frame)
	}
}

// Pending returns the number of rows not yet written.
func (r *Recorder) Pending() int {
	return r.frames.Len() + r.collisions.Len() + r.drifts.Len()
}

// SessionID returns the active session's row ID, zero before Start.
func (r *Recorder) SessionID() uint {
	return uint(r.sessionID.Load())
}

// LastFlushDuration returns how long the most recent flush took.
func (r *Recorder) LastFlushDuration() time.Duration {
	return time.Duration(r.lastFlushNanos.Load())
}

func (r *Recorder) writeLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.flush()
		}
	}
}

// flush drains all queues into the store in one pass.
func (r *Recorder) flush() {
	start := time.Now()
	defer func() { r.lastFlushNanos.Store(int64(time.Since(start))) }()

	sessionID := uint(r.sessionID.Load())

	writeQueue(r.store.DB, r.frames, "frames", r.logger, func(items []Frame) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	})
	writeQueue(r.store.DB, r.collisions, "collisions", r.logger, func(items []CollisionRecord) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	})
	writeQueue(r.store.DB, r.drifts, "drift segments", r.logger, func(items []DriftSegment) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	})
}

// writeQueue writes all items from a queue to the database in a
// transaction, requeueing them on failure.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log zerolog.Logger, prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log.Error().Err(err).Str("queue", name).Msg("Error writing telemetry batch")
		tx.Rollback()
		q.Push(items...)
		return
	}
	tx.Commit()
}
