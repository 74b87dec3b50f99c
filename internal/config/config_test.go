package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" },
		"vehicle": { "mass": 1200 }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "simcore.cfg.json"), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
	assert.Equal(t, 1200.0, viper.GetFloat64("vehicle.mass"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "simcore.cfg.json"), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./simlogs", viper.GetString("logsDir"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "simcore", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "simcore-metrics", viper.GetString("influx.org"))
	assert.Equal(t, true, viper.GetBool("telemetry.enabled"))
	assert.Equal(t, 1500.0, viper.GetFloat64("vehicle.mass"))
	assert.Equal(t, 2.6, viper.GetFloat64("vehicle.wheelbase"))
	assert.Equal(t, 1.0/120, viper.GetFloat64("physics.fixedDt"))
	assert.Equal(t, 10, viper.GetInt("physics.iterations"))
	assert.Equal(t, 4000.0, viper.GetFloat64("damage.forceThreshold"))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "info", viper.GetString("logLevel"))
}

func TestVehicleConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{"vehicle": { "mass": 1100, "cgToFront": 1.2, "cgToRear": 1.4, "wheelbase": 2.6 }}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "simcore.cfg.json"), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	vc := VehicleConfig()
	assert.Equal(t, 1100.0, vc.Mass)
	assert.Equal(t, 1.2, vc.CGToFront)
	require.NoError(t, vc.Validate())
}

func TestSimOptions_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))

	opts := SimOptions()
	assert.Equal(t, 1.0/120, opts.FixedDT)
	assert.Equal(t, 10, opts.Iterations)
	assert.Equal(t, 8, opts.MaxSubsteps)
	assert.Equal(t, 4000.0, opts.Damage.ForceThreshold)
	assert.Equal(t, 0.26, opts.Drift.AngleThreshold)
	assert.Equal(t, 120.0, opts.Score.AngleFactor)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))

	oc := GetOTelConfig()
	assert.Equal(t, false, oc.Enabled)
	assert.Equal(t, "simcore", oc.ServiceName)
	assert.Equal(t, 5*time.Second, oc.BatchTimeout)
	assert.Equal(t, "", oc.Endpoint)
	assert.Equal(t, true, oc.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"otel": {
			"enabled": true,
			"serviceName": "my-sim",
			"batchTimeout": "30s",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "simcore.cfg.json"), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-sim", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}
