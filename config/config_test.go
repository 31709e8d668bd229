package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, retriever.DefaultConfig(), cfg.Tracking())
	assert.Equal(t, ":50061", cfg.Transport.Listen)
	assert.Equal(t, DefaultServiceAddress, cfg.Camera.Address)
	assert.False(t, cfg.Camera.IsStatic())
	assert.Equal(t, RegistryNone, cfg.Registry.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "retriever.toml", `
[general]
period = 0.02
rpc-timeout = 0.25

[skeleton]
key-recognition-confidence = 0.5
key-recognition-percentage = 0.4
keys-acceptable-misses = 5
tracking-threshold = 0.25
time-to-live = 1.5

[camera]
fov-h = 58.0
fov-v = 45.0

[registry]
mode = "sqlite"
database = "/var/lib/skeleton/registry.db"

[log]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, retriever.Config{
		Period:                   20 * time.Millisecond,
		RPCTimeout:               250 * time.Millisecond,
		KeyRecognitionConfidence: 0.5,
		KeyRecognitionPercentage: 0.4,
		KeysAcceptableMisses:     5,
		TrackingThreshold:        0.25,
		TimeToLive:               1500 * time.Millisecond,
	}, cfg.Tracking())
	assert.True(t, cfg.Camera.IsStatic())
	assert.Equal(t, 58.0, cfg.Camera.FovH)
	assert.Equal(t, RegistrySQLite, cfg.Registry.Mode)
	assert.Equal(t, "/var/lib/skeleton/registry.db", cfg.Registry.Database)

	logger, err := cfg.Log.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "retriever.yaml", `
skeleton:
  time-to-live: 0.3
registry:
  mode: remote
  address: registry.local:50062
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, cfg.Tracking().TimeToLive)
	assert.Equal(t, RegistryRemote, cfg.Registry.Mode)
	assert.Equal(t, "registry.local:50062", cfg.Registry.Address)
	// Untouched keys keep defaults
	assert.Equal(t, 3, cfg.Tracking().KeysAcceptableMisses)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SKELETON_RETRIEVER_SKELETON_TRACKING_THRESHOLD", "0.45")
	t.Setenv("SKELETON_RETRIEVER_TRANSPORT_LISTEN", "127.0.0.1:6000")
	t.Setenv("SKELETON_RETRIEVER_REGISTRY_MODE", "sqlite")

	path := writeConfig(t, "retriever.toml", `
[skeleton]
tracking-threshold = 0.1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.45, cfg.Skeleton.TrackingThreshold)
	assert.Equal(t, "127.0.0.1:6000", cfg.Transport.Listen)
	assert.Equal(t, RegistrySQLite, cfg.Registry.Mode)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"zero period", func(cfg *Config) { cfg.General.Period = 0 }},
		{"negative misses", func(cfg *Config) { cfg.Skeleton.KeysAcceptableMisses = -1 }},
		{"percentage above one", func(cfg *Config) { cfg.Skeleton.KeyRecognitionPercentage = 1.5 }},
		{"zero time to live", func(cfg *Config) { cfg.Skeleton.TimeToLive = 0 }},
		{"empty listen", func(cfg *Config) { cfg.Transport.Listen = "" }},
		{"no camera", func(cfg *Config) { cfg.Camera.Address = "" }},
		{"bad field of view", func(cfg *Config) { cfg.Camera.FovH, cfg.Camera.FovV = 200, 45 }},
		{"unknown registry", func(cfg *Config) { cfg.Registry.Mode = "redis" }},
		{"remote without address", func(cfg *Config) {
			cfg.Registry.Mode = RegistryRemote
			cfg.Registry.Address = ""
		}},
		{"sqlite without database", func(cfg *Config) {
			cfg.Registry.Mode = RegistrySQLite
			cfg.Registry.Database = ""
		}},
		{"unknown log level", func(cfg *Config) { cfg.Log.Level = "loud" }},
		{"unknown log format", func(cfg *Config) { cfg.Log.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, retriever.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := writeConfig(t, "retriever.toml", `
[registry]
mode = "carrier-pigeon"
`)
	_, err := Load(path)
	assert.True(t, errors.Is(err, retriever.ErrInvalidConfig), "got %v", err)
}
