// Package telemetry persists simulation output: per-frame samples and
// collision and drift records batched into Postgres (SQLite fallback),
// with optional live streaming to InfluxDB.
package telemetry

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/apexdrift/simcore/pkg/core"
)

// DatabaseModels lists every struct migrated into the schema.
var DatabaseModels = []interface{}{
	&Session{},
	&Frame{},
	&CollisionRecord{},
	&DriftSegment{},
	&PerfSample{},
}

// Session is one recorded run: a scenario or a live driving session.
type Session struct {
	gorm.Model
	Name     string  `json:"name" gorm:"size:127"`
	Scenario string  `json:"scenario" gorm:"size:63"`
	Vehicle  string  `json:"vehicle" gorm:"size:63"`
	Duration float64 `json:"duration"`
}

func (*Session) TableName() string {
	return "sessions"
}

// Frame is one telemetry sample. Wheel state is stored as a JSON blob;
// the per-wheel columns are not queried individually.
type Frame struct {
	ID        uint      `gorm:"primarykey"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_frames_session_id"`
	Time      time.Time `json:"time" gorm:"type:timestamptz;index:idx_frames_time"`
	SimTime   float64   `json:"simTime"`

	PosX float64 `json:"posX"`
	PosY float64 `json:"posY"`
	Yaw  float64 `json:"yaw"`

	SpeedKMH  float64 `json:"speedKmh"`
	RPM       float64 `json:"rpm"`
	Gear      int     `json:"gear"`
	GForceLat float64 `json:"gForceLat"`
	GForceLon float64 `json:"gForceLon"`

	Drifting   bool    `json:"drifting"`
	DriftAngle float64 `json:"driftAngle"`
	DriftScore float64 `json:"driftScore"`

	DamageTotal float64        `json:"damageTotal"`
	Wheels      datatypes.JSON `json:"wheels"`
}

func (*Frame) TableName() string {
	return "frames"
}

// CollisionRecord is one damaging vehicle contact.
type CollisionRecord struct {
	ID        uint      `gorm:"primarykey"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_collisions_session_id"`
	Time      time.Time `json:"time" gorm:"type:timestamptz"`
	SimTime   float64   `json:"simTime"`

	Zone          string  `json:"zone" gorm:"size:15"`
	Magnitude     float64 `json:"magnitude"`
	Increment     float64 `json:"increment"`
	WhileDrifting bool    `json:"whileDrifting"`
}

func (*CollisionRecord) TableName() string {
	return "collisions"
}

// DriftSegment is one completed drift, written when the score banks.
type DriftSegment struct {
	ID        uint      `gorm:"primarykey"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_drifts_session_id"`
	Time      time.Time `json:"time" gorm:"type:timestamptz"`
	SimTime   float64   `json:"simTime"`

	Banked float64 `json:"banked"`
}

func (*DriftSegment) TableName() string {
	return "drift_segments"
}

// PerfSample is one health sample from the status monitor: write queue
// depth, flush latency and the headline simulation gauges.
type PerfSample struct {
	ID        uint      `gorm:"primarykey"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_perf_session_id"`
	Time      time.Time `json:"time" gorm:"type:timestamptz"`

	PendingRows int     `json:"pendingRows"`
	LastFlushMs float32 `json:"lastFlushMs"`

	SpeedKMH     float64 `json:"speedKmh"`
	RPM          float64 `json:"rpm"`
	DriftScore   float64 `json:"driftScore"`
	BodiesAsleep int64   `json:"bodiesAsleep"`
}

func (*PerfSample) TableName() string {
	return "perf_samples"
}

// SnapshotToFrame flattens a snapshot into a Frame row.
func SnapshotToFrame(s core.Snapshot) Frame {
	wheels, err := json.Marshal(s.Wheels)
	if err != nil {
		wheels = []byte("[]")
	}
	return Frame{
		Time:        time.Now(),
		SimTime:     s.Time,
		PosX:        s.Position.X,
		PosY:        s.Position.Y,
		Yaw:         s.Orientation.Yaw(),
		SpeedKMH:    s.SpeedKMH,
		RPM:         s.RPM,
		Gear:        s.Gear,
		GForceLat:   s.GForce.X,
		GForceLon:   s.GForce.Y,
		Drifting:    s.Drift.IsDrifting,
		DriftAngle:  s.Drift.AngleDegrees,
		DriftScore:  s.Drift.CurrentScore,
		DamageTotal: s.Damage.Total,
		Wheels:      datatypes.JSON(wheels),
	}
}

// CollisionToRecord flattens a collision event into a row.
func CollisionToRecord(simTime float64, e core.CollisionEvent) CollisionRecord {
	return CollisionRecord{
		Time:          time.Now(),
		SimTime:       simTime,
		Zone:          string(e.Zone),
		Magnitude:     e.ImpactMagnitude,
		Increment:     e.DamageIncrement,
		WhileDrifting: e.WhileDrifting,
	}
}
