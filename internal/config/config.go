// Package config loads the simulator configuration from JSON via viper,
// with defaults for every tunable so a missing file still yields a
// complete, valid setup.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/apexdrift/simcore/internal/drift"
	"github.com/apexdrift/simcore/internal/otel"
	"github.com/apexdrift/simcore/internal/physics"
	"github.com/apexdrift/simcore/internal/sim"
	"github.com/apexdrift/simcore/internal/vehicle"
)

// Load reads configuration from simcore.cfg.json in configDir and sets
// default values. A missing file is not an error; defaults apply.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./simlogs")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "simcore")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "simcore-metrics")

	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.sqlitePath", "")

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5001/ws")
	viper.SetDefault("stream.secret", "")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.statusDir", ".")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "simcore")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	def := vehicle.DefaultConfig()
	viper.SetDefault("vehicle.mass", def.Mass)
	viper.SetDefault("vehicle.wheelbase", def.Wheelbase)
	viper.SetDefault("vehicle.trackWidth", def.TrackWidth)
	viper.SetDefault("vehicle.cgHeight", def.CGHeight)
	viper.SetDefault("vehicle.cgToFront", def.CGToFront)
	viper.SetDefault("vehicle.cgToRear", def.CGToRear)
	viper.SetDefault("vehicle.frontalArea", def.FrontalArea)
	viper.SetDefault("vehicle.dragCoeff", def.DragCoeff)
	viper.SetDefault("vehicle.downforceCoeff", def.DownforceCoeff)
	viper.SetDefault("vehicle.wheelRadius", def.WheelRadius)
	viper.SetDefault("vehicle.maxSteerAngle", def.MaxSteerAngle)

	dc := drift.DefaultConfig()
	viper.SetDefault("drift.angleThreshold", dc.AngleThreshold)
	viper.SetDefault("drift.speedThreshold", dc.SpeedThreshold)
	viper.SetDefault("drift.maxDriftAngle", dc.MaxDriftAngle)
	viper.SetDefault("drift.counterSteerGain", dc.CounterSteerGain)
	viper.SetDefault("drift.stabilityDecay", dc.StabilityDecay)
	viper.SetDefault("drift.correctiveTorque", dc.CorrectiveTorque)
	viper.SetDefault("drift.spinoutCooldown", dc.SpinoutCooldown)

	sc := drift.DefaultScoreConfig()
	viper.SetDefault("score.angleFactor", sc.AngleFactor)
	viper.SetDefault("score.speedFactor", sc.SpeedFactor)
	viper.SetDefault("score.bankDelay", sc.BankDelay)
	viper.SetDefault("score.collisionLoss", sc.CollisionLoss)
	viper.SetDefault("score.comboInterval", sc.ComboInterval)
	viper.SetDefault("score.comboMax", sc.ComboMax)
	viper.SetDefault("score.wallRange", sc.WallRange)

	dmg := sim.DefaultDamageConfig()
	viper.SetDefault("damage.forceThreshold", dmg.ForceThreshold)
	viper.SetDefault("damage.forceScale", dmg.ForceScale)

	viper.SetDefault("physics.fixedDt", physics.DefaultFixedDT)
	viper.SetDefault("physics.iterations", physics.DefaultIterations)
	viper.SetDefault("physics.maxSubsteps", physics.DefaultMaxSubsteps)

	viper.SetConfigName("simcore.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %v", err)
		}
	}

	return nil
}

// VehicleConfig returns the default vehicle with configured overrides.
func VehicleConfig() vehicle.Config {
	cfg := vehicle.DefaultConfig()
	cfg.Mass = viper.GetFloat64("vehicle.mass")
	cfg.Wheelbase = viper.GetFloat64("vehicle.wheelbase")
	cfg.TrackWidth = viper.GetFloat64("vehicle.trackWidth")
	cfg.CGHeight = viper.GetFloat64("vehicle.cgHeight")
	cfg.CGToFront = viper.GetFloat64("vehicle.cgToFront")
	cfg.CGToRear = viper.GetFloat64("vehicle.cgToRear")
	cfg.FrontalArea = viper.GetFloat64("vehicle.frontalArea")
	cfg.DragCoeff = viper.GetFloat64("vehicle.dragCoeff")
	cfg.DownforceCoeff = viper.GetFloat64("vehicle.downforceCoeff")
	cfg.WheelRadius = viper.GetFloat64("vehicle.wheelRadius")
	cfg.MaxSteerAngle = viper.GetFloat64("vehicle.maxSteerAngle")
	return cfg
}

// DriftConfig returns the drift controller tunables.
func DriftConfig() drift.Config {
	cfg := drift.DefaultConfig()
	cfg.AngleThreshold = viper.GetFloat64("drift.angleThreshold")
	cfg.SpeedThreshold = viper.GetFloat64("drift.speedThreshold")
	cfg.MaxDriftAngle = viper.GetFloat64("drift.maxDriftAngle")
	cfg.CounterSteerGain = viper.GetFloat64("drift.counterSteerGain")
	cfg.StabilityDecay = viper.GetFloat64("drift.stabilityDecay")
	cfg.CorrectiveTorque = viper.GetFloat64("drift.correctiveTorque")
	cfg.SpinoutCooldown = viper.GetFloat64("drift.spinoutCooldown")
	return cfg
}

// ScoreConfig returns the drift scoring tunables.
func ScoreConfig() drift.ScoreConfig {
	cfg := drift.DefaultScoreConfig()
	cfg.AngleFactor = viper.GetFloat64("score.angleFactor")
	cfg.SpeedFactor = viper.GetFloat64("score.speedFactor")
	cfg.BankDelay = viper.GetFloat64("score.bankDelay")
	cfg.CollisionLoss = viper.GetFloat64("score.collisionLoss")
	cfg.ComboInterval = viper.GetFloat64("score.comboInterval")
	cfg.ComboMax = viper.GetFloat64("score.comboMax")
	cfg.WallRange = viper.GetFloat64("score.wallRange")
	return cfg
}

// DamageConfig returns the impact-to-damage mapping.
func DamageConfig() sim.DamageConfig {
	return sim.DamageConfig{
		ForceThreshold: viper.GetFloat64("damage.forceThreshold"),
		ForceScale:     viper.GetFloat64("damage.forceScale"),
	}
}

// SimOptions assembles the configured simulation options. Logger, Events,
// Metrics and Surfaces stay nil for the caller to wire.
func SimOptions() sim.Options {
	opts := sim.DefaultOptions()
	opts.Vehicle = VehicleConfig()
	opts.Drift = DriftConfig()
	opts.Score = ScoreConfig()
	opts.Damage = DamageConfig()
	opts.FixedDT = viper.GetFloat64("physics.fixedDt")
	opts.Iterations = viper.GetInt("physics.iterations")
	opts.MaxSubsteps = viper.GetInt("physics.maxSubsteps")
	return opts
}

// GetOTelConfig returns the OpenTelemetry settings. The caller attaches
// the log writer.
func GetOTelConfig() otel.Config {
	return otel.Config{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
