// Command simcore runs the vehicle simulation headless: a named scenario
// is stepped at a fixed frame rate, telemetry is recorded, and the final
// snapshot is printed as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/apexdrift/simcore/internal/api"
	"github.com/apexdrift/simcore/internal/config"
	"github.com/apexdrift/simcore/internal/events"
	"github.com/apexdrift/simcore/internal/logging"
	"github.com/apexdrift/simcore/internal/metrics"
	"github.com/apexdrift/simcore/internal/monitor"
	intOtel "github.com/apexdrift/simcore/internal/otel"
	"github.com/apexdrift/simcore/internal/sim"
	"github.com/apexdrift/simcore/internal/stream"
	"github.com/apexdrift/simcore/internal/telemetry"
	"github.com/apexdrift/simcore/internal/track"
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/streaming"
)

var (
	Version   = "0.0.1"
	BuildDate = "unknown"

	AppName = "simcore"
)

func main() {
	configDir := flag.String("config", ".", "directory containing simcore.cfg.json")
	scenarioName := flag.String("scenario", "drift", "builtin scenario to run")
	trackPath := flag.String("track", "", "track definition file to load")
	duration := flag.Float64("duration", 0, "override scenario duration in seconds")
	frameRate := flag.Float64("rate", 60, "outer frame rate in Hz")
	record := flag.Bool("record", false, "record telemetry to the database")
	list := flag.Bool("list", false, "list builtin scenarios and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return
	}
	if *list {
		for _, sc := range sim.BuiltinScenarios() {
			fmt.Printf("%-10s %s (%.0fs)\n", sc.Name, sc.Description, sc.Duration)
		}
		return
	}

	if err := run(*configDir, *scenarioName, *trackPath, *duration, *frameRate, *record); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run(configDir, scenarioName, trackPath string, duration, frameRate float64, record bool) error {
	sessionStart := time.Now()

	if err := config.Load(configDir); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		if err := os.Mkdir(logsDir, 0755); err != nil {
			return fmt.Errorf("creating logs dir: %w", err)
		}
	}

	logFilePath := logging.LogFilePath(logsDir, AppName, sessionStart)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	// OTel provider writes its logs into the same file.
	var otelProvider *intOtel.Provider
	var otelLogProvider *sdklog.LoggerProvider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		otelCfg.LogWriter = logFile
		otelProvider, err = intOtel.New(otelCfg)
		if err != nil {
			return fmt.Errorf("initialising OTel provider: %w", err)
		}
		otelLogProvider = otelProvider.LoggerProvider()
		defer otelProvider.Shutdown(context.Background())
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider)
	logger := slogManager.Logger()
	logger.Info("Starting", "version", Version, "scenario", scenarioName, "rate", frameRate)

	scenario, ok := sim.FindScenario(scenarioName)
	if !ok {
		return fmt.Errorf("unknown scenario %q", scenarioName)
	}
	if duration > 0 {
		scenario.Duration = duration
	}

	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	dispatcher, err := events.New(logging.NewEventLogger(zlog))
	if err != nil {
		return fmt.Errorf("creating event dispatcher: %w", err)
	}

	opts := config.SimOptions()
	opts.Events = dispatcher

	var trk *track.Track
	if trackPath != "" {
		trk, err = track.Load(trackPath)
		if err != nil {
			return fmt.Errorf("loading track: %w", err)
		}
		opts.Surfaces, err = trk.SurfaceMap()
		if err != nil {
			return fmt.Errorf("building surface map: %w", err)
		}
		logger.Info("Track loaded", "track", trk.Name, "walls", len(trk.Walls), "surfaces", len(trk.Surfaces))
	}

	var simulation *sim.Simulation
	opts.Metrics, err = metrics.NewRecorder(func() metrics.Observation {
		if simulation == nil {
			return metrics.Observation{}
		}
		return simulation.Observation()
	})
	if err != nil {
		return fmt.Errorf("creating metrics recorder: %w", err)
	}

	// Stamp the simulation clock and drift state on every log line.
	opts.Logger = slog.New(logging.NewContextHandler(logger.Handler(), func() []slog.Attr {
		if simulation == nil {
			return nil
		}
		return []slog.Attr{
			slog.Float64("simTime", simulation.World.Time()),
			slog.Bool("drifting", simulation.Drift.IsDrifting()),
		}
	}))

	simulation, err = sim.New(opts)
	if err != nil {
		return fmt.Errorf("building simulation: %w", err)
	}
	if trk != nil {
		if err := trk.Place(simulation); err != nil {
			return fmt.Errorf("placing track: %w", err)
		}
	}

	var streamer *stream.Streamer
	if viper.GetBool("stream.enabled") {
		streamer = stream.New(stream.Config{
			URL:    viper.GetString("stream.url"),
			Secret: viper.GetString("stream.secret"),
		}, logger)
		if err := streamer.Connect(); err != nil {
			logger.Warn("Spectator server unavailable, streaming disabled", "error", err)
			streamer = nil
		} else {
			defer streamer.Close()
			streamer.Attach(dispatcher)
			if err := streamer.StartSession(streaming.StartSessionPayload{
				Name:     fmt.Sprintf("%s %s", scenarioName, sessionStart.Format("20060102_150405")),
				Scenario: scenarioName,
				Vehicle:  "default",
			}); err != nil {
				logger.Warn("Spectator session not acknowledged", "error", err)
			}
		}
	}

	var recorder *telemetry.Recorder
	if record && viper.GetBool("telemetry.enabled") {
		store := telemetry.NewStore(zlog)
		store.SqlitePath = viper.GetString("telemetry.sqlitePath")
		if err := store.Connect(); err != nil {
			return fmt.Errorf("connecting telemetry store: %w", err)
		}
		defer store.Close()

		var live *telemetry.LiveWriter
		if viper.GetBool("influx.enabled") {
			live = telemetry.NewLiveWriter(zlog)
			if err := live.Connect(context.Background()); err != nil {
				logger.Warn("InfluxDB unavailable, live streaming disabled", "error", err)
				live = nil
			} else {
				defer live.Close()
			}
		}

		recorder = telemetry.NewRecorder(store, live, zlog)
		recorder.Attach(dispatcher)
		session := &telemetry.Session{
			Name:     fmt.Sprintf("%s %s", scenarioName, sessionStart.Format("20060102_150405")),
			Scenario: scenarioName,
			Vehicle:  "default",
		}
		if err := recorder.Start(session); err != nil {
			return fmt.Errorf("starting telemetry session: %w", err)
		}

		if viper.GetBool("monitor.enabled") {
			monSvc := monitor.NewService(monitor.Dependencies{
				DB:         store.DB,
				LogManager: slogManager,
				Recorder:   recorder,
				Observe: func() metrics.Observation {
					return simulation.Observation()
				},
				StatusDir:       viper.GetString("monitor.statusDir"),
				IsDatabaseValid: func() bool { return store.DB != nil },
			})
			if !store.IsLocal {
				hypertables := map[string][]string{
					"frames":       {"session_id"},
					"perf_samples": {"session_id"},
				}
				if err := monSvc.ValidateHypertables(hypertables); err != nil {
					logger.Warn("TimescaleDB hypertables unavailable", "error", err)
				}
			}
			if err := monSvc.Start(); err != nil {
				logger.Warn("Status monitor failed to start", "error", err)
			} else {
				defer monSvc.Stop()
			}
		}
	}

	final := runScenario(simulation, scenario, frameRate, recorder, streamer)

	if recorder != nil {
		if err := recorder.Stop(final.Time); err != nil {
			logger.Error("Failed to close telemetry session", "error", err)
		}
	}
	if streamer != nil {
		if err := streamer.EndSession(final.Time); err != nil {
			logger.Warn("Spectator session close not acknowledged", "error", err)
		}
	}
	if otelProvider != nil {
		if err := otelProvider.Flush(context.Background()); err != nil {
			logger.Warn("OTel log flush failed", "error", err)
		}
	}

	logger.Info("Scenario complete",
		"simTime", final.Time,
		"distance", final.Position.XY().Length(),
		"bankedScore", final.Drift.BankedScore,
		"damage", final.Damage.Total)

	out, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	fmt.Println(string(out))

	if viper.GetBool("api.enabled") {
		if err := uploadResult(logsDir, scenarioName, sessionStart, final, out); err != nil {
			logger.Warn("Result upload failed", "error", err)
		}
	}
	return nil
}

// uploadResult writes the final snapshot next to the logs and pushes it to
// the leaderboard server.
func uploadResult(logsDir, scenarioName string, sessionStart time.Time, final core.Snapshot, encoded []byte) error {
	sessionName := fmt.Sprintf("%s %s", scenarioName, sessionStart.Format("20060102_150405"))
	resultPath := filepath.Join(logsDir, fmt.Sprintf("%s.%s.result.json",
		scenarioName, sessionStart.Format("20060102_150405")))
	if err := os.WriteFile(resultPath, encoded, 0644); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}

	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	if err := client.Healthcheck(); err != nil {
		return err
	}
	return client.Upload(resultPath, api.SessionMetadata{
		SessionName: sessionName,
		Scenario:    scenarioName,
		Vehicle:     "default",
		Duration:    final.Time,
		BankedScore: final.Drift.BankedScore,
		DamageTotal: final.Damage.Total,
	})
}

// runScenario steps the scenario as fast as possible at the configured
// frame rate, feeding every frame to the recorder and streamer when
// attached.
func runScenario(s *sim.Simulation, sc sim.Scenario, frameRate float64, recorder *telemetry.Recorder, streamer *stream.Streamer) core.Snapshot {
	if sc.Setup != nil {
		sc.Setup(s)
	}
	frameDT := 1 / frameRate
	for t := 0.0; t < sc.Duration; t += frameDT {
		s.Apply(sc.Input(t))
		s.Step(frameDT)
		if recorder != nil || streamer != nil {
			snap := s.Snapshot()
			if recorder != nil {
				recorder.RecordFrame(snap)
			}
			if streamer != nil {
				_ = streamer.SendFrame(snap)
			}
		}
	}
	return s.Snapshot()
}
