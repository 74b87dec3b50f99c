package telemetry

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexdrift/simcore/internal/events"
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// newTestStore opens an in-memory SQLite store with the schema migrated.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := openSqlite("file::memory:")
	require.NoError(t, err)

	s := &Store{DB: db, IsLocal: true, Logger: zerolog.Nop()}
	require.NoError(t, s.DB.AutoMigrate(DatabaseModels...))
	return s
}

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		Time:     12.5,
		Position: vmath.Vec3{X: 3, Y: 40},
		SpeedKMH: 72,
		RPM:      4500,
		Gear:     3,
		GForce:   vmath.Vec3{X: 0.4, Y: -0.2},
		Drift: core.DriftSnapshot{
			IsDrifting:   true,
			AngleDegrees: 22,
			CurrentScore: 340,
		},
		Damage: core.DamageZones{Total: 0.1},
	}
}

func TestSnapshotToFrame(t *testing.T) {
	f := SnapshotToFrame(sampleSnapshot())

	assert.Equal(t, 12.5, f.SimTime)
	assert.Equal(t, 3.0, f.PosX)
	assert.Equal(t, 40.0, f.PosY)
	assert.Equal(t, 72.0, f.SpeedKMH)
	assert.Equal(t, 3, f.Gear)
	assert.True(t, f.Drifting)
	assert.Equal(t, 22.0, f.DriftAngle)
	assert.Equal(t, 0.1, f.DamageTotal)
	assert.NotEmpty(t, f.Wheels)
}

func TestCollisionToRecord(t *testing.T) {
	rec := CollisionToRecord(8.25, core.CollisionEvent{
		Zone:            core.ZoneFront,
		ImpactMagnitude: 37500,
		DamageIncrement: 0.84,
		WhileDrifting:   true,
	})

	assert.Equal(t, "front", rec.Zone)
	assert.Equal(t, 8.25, rec.SimTime)
	assert.Equal(t, 37500.0, rec.Magnitude)
	assert.True(t, rec.WhileDrifting)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	defer func() { require.NoError(t, s.Close()) }()

	session := &Session{Name: "test run", Scenario: "drift"}
	require.NoError(t, s.StartSession(session))
	require.NotZero(t, session.ID)

	require.NoError(t, s.EndSession(session.ID, 42.5))

	var got Session
	require.NoError(t, s.DB.First(&got, session.ID).Error)
	assert.Equal(t, 42.5, got.Duration)
}

func TestRecorderFlushWritesFrames(t *testing.T) {
	s := newTestStore(t)
	defer func() { require.NoError(t, s.Close()) }()

	r := NewRecorder(s, nil, zerolog.Nop())
	session := &Session{Name: "flush test"}
	require.NoError(t, s.StartSession(session))
	r.sessionID.Store(uint64(session.ID))

	for i := 0; i < 5; i++ {
		r.RecordFrame(sampleSnapshot())
	}
	assert.Equal(t, 5, r.Pending())

	r.flush()
	assert.Zero(t, r.Pending())

	var count int64
	require.NoError(t, s.DB.Model(&Frame{}).Where("session_id = ?", session.ID).Count(&count).Error)
	assert.EqualValues(t, 5, count)
}

func TestRecorderAttachCapturesEvents(t *testing.T) {
	s := newTestStore(t)
	defer func() { require.NoError(t, s.Close()) }()

	r := NewRecorder(s, nil, zerolog.Nop())
	d, err := events.New(nil)
	require.NoError(t, err)
	r.Attach(d)

	d.Emit(events.Event{
		Name:    events.Collision,
		SimTime: 3,
		Payload: core.CollisionEvent{Zone: core.ZoneLeft, ImpactMagnitude: 9000},
	})
	d.Emit(events.Event{Name: events.DriftBank, SimTime: 5, Payload: 480.0})

	assert.Equal(t, 1, r.collisions.Len())
	assert.Equal(t, 1, r.drifts.Len())

	r.flush()

	var col CollisionRecord
	require.NoError(t, s.DB.First(&col).Error)
	assert.Equal(t, "left", col.Zone)

	var seg DriftSegment
	require.NoError(t, s.DB.First(&seg).Error)
	assert.Equal(t, 480.0, seg.Banked)
}

func TestRecorderStartStop(t *testing.T) {
	s := newTestStore(t)
	defer func() { require.NoError(t, s.Close()) }()

	r := NewRecorder(s, nil, zerolog.Nop())
	session := &Session{Name: "lifecycle"}
	require.NoError(t, r.Start(session))

	r.RecordFrame(sampleSnapshot())
	require.NoError(t, r.Stop(10))

	assert.Zero(t, r.Pending())

	var got Session
	require.NoError(t, s.DB.First(&got, session.ID).Error)
	assert.Equal(t, 10.0, got.Duration)
}
