package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Influx bucket names.
const (
	BucketFrames = "sim_frames"
	BucketEvents = "sim_events"
)

// LiveWriter streams frames and events to InfluxDB for live dashboards.
type LiveWriter struct {
	Client  influxdb2.Client
	Writers map[string]influxdb2_api.WriteAPI
	IsValid bool
	Logger  zerolog.Logger
}

// NewLiveWriter creates an unconnected writer.
func NewLiveWriter(log zerolog.Logger) *LiveWriter {
	return &LiveWriter{
		Writers: make(map[string]influxdb2_api.WriteAPI),
		Logger:  log,
	}
}

// Connect initialises the client and the per-bucket write APIs.
func (w *LiveWriter) Connect(ctx context.Context) error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	w.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := w.Client.Ping(ctx)
	if err != nil || !running {
		return fmt.Errorf("influx ping failed: %v", err)
	}
	w.IsValid = true

	org := viper.GetString("influx.org")
	for _, bucket := range []string{BucketFrames, BucketEvents} {
		w.Writers[bucket] = w.Client.WriteAPI(org, bucket)

		errorsCh := w.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				w.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)
	}

	w.Logger.Info().Msg("InfluxDB live writer initialized")
	return nil
}

// Close flushes and shuts down the client.
func (w *LiveWriter) Close() {
	if w.Client != nil {
		w.Client.Close()
	}
	w.IsValid = false
}

// WriteFrame streams one telemetry frame.
func (w *LiveWriter) WriteFrame(session string, f Frame) {
	if !w.IsValid {
		return
	}
	point := influxdb2_write.NewPointWithMeasurement("frame").
		AddTag("session", session).
		AddField("simTime", f.SimTime).
		AddField("speedKmh", f.SpeedKMH).
		AddField("rpm", f.RPM).
		AddField("gear", f.Gear).
		AddField("driftAngle", f.DriftAngle).
		AddField("driftScore", f.DriftScore).
		AddField("gForceLat", f.GForceLat).
		AddField("gForceLon", f.GForceLon).
		AddField("damageTotal", f.DamageTotal).
		SetTime(f.Time)
	w.Writers[BucketFrames].WritePoint(point)
}

// WriteEvent streams one named simulation event.
func (w *LiveWriter) WriteEvent(session, name string, simTime float64, value float64) {
	if !w.IsValid {
		return
	}
	point := influxdb2_write.NewPointWithMeasurement("event").
		AddTag("session", session).
		AddTag("event", name).
		AddField("simTime", simTime).
		AddField("value", value).
		SetTime(time.Now())
	w.Writers[BucketEvents].WritePoint(point)
}
