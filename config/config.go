// Package config loads skeleton retriever settings from file and environment
package config

import (
	"math"
	"os"
	"strings"
	"time"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prefix of environment overrides, e.g. SKELETON_RETRIEVER_SKELETON_TIME_TO_LIVE
const EnvPrefix = "SKELETON_RETRIEVER"

// DefaultServiceAddress is where skeleton-registry serves registry and camera by default
const DefaultServiceAddress = "localhost:50062"

// Registry modes
const (
	RegistryRemote = "remote"
	RegistrySQLite = "sqlite"
	RegistryNone   = "none"
)

// Config holds application configuration
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Skeleton  SkeletonConfig  `mapstructure:"skeleton"`
	Transport TransportConfig `mapstructure:"transport"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Log       LogConfig       `mapstructure:"log"`
}

// GeneralConfig holds loop timing (seconds)
type GeneralConfig struct {
	Period     float64 `mapstructure:"period"`
	RPCTimeout float64 `mapstructure:"rpc-timeout"`
}

// SkeletonConfig holds tracking parameters
type SkeletonConfig struct {
	KeyRecognitionConfidence float64 `mapstructure:"key-recognition-confidence"`
	KeyRecognitionPercentage float64 `mapstructure:"key-recognition-percentage"`
	KeysAcceptableMisses     int     `mapstructure:"keys-acceptable-misses"`
	TrackingThreshold        float64 `mapstructure:"tracking-threshold"`
	// Seconds
	TimeToLive float64 `mapstructure:"time-to-live"`
}

// TransportConfig holds address of frames and viewer gRPC server
type TransportConfig struct {
	Listen string `mapstructure:"listen"`
}

// CameraConfig holds either address of camera service or static field of view (degrees)
type CameraConfig struct {
	Address string  `mapstructure:"address"`
	FovH    float64 `mapstructure:"fov-h"`
	FovV    float64 `mapstructure:"fov-v"`
}

// IsStatic returns true when field of view is configured explicitly. It takes precedence over address
func (cfg CameraConfig) IsStatic() bool {
	return cfg.FovH != 0 || cfg.FovV != 0
}

// RegistryConfig selects registry implementation
type RegistryConfig struct {
	Mode     string `mapstructure:"mode"`
	Address  string `mapstructure:"address"`
	Database string `mapstructure:"database"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	defaults := retriever.DefaultConfig()
	v.SetDefault("general.period", defaults.Period.Seconds())
	v.SetDefault("general.rpc-timeout", defaults.RPCTimeout.Seconds())
	v.SetDefault("skeleton.key-recognition-confidence", defaults.KeyRecognitionConfidence)
	v.SetDefault("skeleton.key-recognition-percentage", defaults.KeyRecognitionPercentage)
	v.SetDefault("skeleton.keys-acceptable-misses", defaults.KeysAcceptableMisses)
	v.SetDefault("skeleton.tracking-threshold", defaults.TrackingThreshold)
	v.SetDefault("skeleton.time-to-live", defaults.TimeToLive.Seconds())
	v.SetDefault("transport.listen", ":50061")
	v.SetDefault("camera.address", DefaultServiceAddress)
	v.SetDefault("camera.fov-h", 0.0)
	v.SetDefault("camera.fov-v", 0.0)
	v.SetDefault("registry.mode", RegistryNone)
	v.SetDefault("registry.address", DefaultServiceAddress)
	v.SetDefault("registry.database", "registry.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from file at path (TOML or YAML by extension) and environment.
// Empty path means defaults plus environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, errors.Wrap(err, "config file")
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that configuration is usable
func (cfg Config) Validate() error {
	if err := cfg.Tracking().Validate(); err != nil {
		return err
	}
	if cfg.Transport.Listen == "" {
		return errors.Wrap(retriever.ErrInvalidConfig, "transport.listen is empty")
	}
	if cfg.Camera.IsStatic() {
		if _, err := retriever.NewCamera(cfg.Camera.FovH, cfg.Camera.FovV); err != nil {
			return errors.Wrap(retriever.ErrInvalidConfig, err.Error())
		}
	} else if cfg.Camera.Address == "" {
		return errors.Wrap(retriever.ErrInvalidConfig, "camera needs either address or fov-h and fov-v")
	}
	switch cfg.Registry.Mode {
	case RegistryRemote:
		if cfg.Registry.Address == "" {
			return errors.Wrap(retriever.ErrInvalidConfig, "registry.address is required for remote registry")
		}
	case RegistrySQLite:
		if cfg.Registry.Database == "" {
			return errors.Wrap(retriever.ErrInvalidConfig, "registry.database is required for sqlite registry")
		}
	case RegistryNone:
	default:
		return errors.Wrapf(retriever.ErrInvalidConfig, "unknown registry.mode %q", cfg.Registry.Mode)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return errors.Wrapf(retriever.ErrInvalidConfig, "log.level: %v", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return errors.Wrapf(retriever.ErrInvalidConfig, "unknown log.format %q", cfg.Log.Format)
	}
	return nil
}

// Tracking converts configuration to tracking parameters
func (cfg Config) Tracking() retriever.Config {
	return retriever.Config{
		Period:                   seconds(cfg.General.Period),
		RPCTimeout:               seconds(cfg.General.RPCTimeout),
		KeyRecognitionConfidence: cfg.Skeleton.KeyRecognitionConfidence,
		KeyRecognitionPercentage: cfg.Skeleton.KeyRecognitionPercentage,
		KeysAcceptableMisses:     cfg.Skeleton.KeysAcceptableMisses,
		TrackingThreshold:        cfg.Skeleton.TrackingThreshold,
		TimeToLive:               seconds(cfg.Skeleton.TimeToLive),
	}
}

// NewLogger creates logger with configured level and format
func (cfg LogConfig) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger := logrus.New()
	logger.SetLevel(level)
	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
