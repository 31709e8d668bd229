package retriever

import (
	"time"

	"github.com/pkg/errors"
)

// Config holds tracking parameters
type Config struct {
	// Period of the control loop. Default 10ms
	Period time.Duration
	// Timeout of a single registry or camera request. Default 100ms
	RPCTimeout time.Duration
	// Minimum confidence of detector key point. Default 0.3
	KeyRecognitionConfidence float64
	// Minimum fraction of fresh key points for admission of a new track. Default 0.3
	KeyRecognitionPercentage float64
	// Number of cycles a stale key point is still reported. Default 3
	KeysAcceptableMisses int
	// Maximum mean key point distance (meters) for correspondence. Default 0.3
	TrackingThreshold float64
	// Time to live of a track without correspondence. Default 500ms
	TimeToLive time.Duration
}

// DefaultConfig returns default tracking parameters
func DefaultConfig() Config {
	return Config{
		Period:                   10 * time.Millisecond,
		RPCTimeout:               100 * time.Millisecond,
		KeyRecognitionConfidence: 0.3,
		KeyRecognitionPercentage: 0.3,
		KeysAcceptableMisses:     3,
		TrackingThreshold:        0.3,
		TimeToLive:               500 * time.Millisecond,
	}
}

// Validate checks that parameters are usable
func (cfg Config) Validate() error {
	if cfg.Period <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "period must be positive, got %s", cfg.Period)
	}
	if cfg.RPCTimeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "rpc timeout must be positive, got %s", cfg.RPCTimeout)
	}
	if cfg.KeyRecognitionConfidence < 0 || cfg.KeyRecognitionConfidence > 1 {
		return errors.Wrapf(ErrInvalidConfig, "key recognition confidence must be between 0 and 1, got %f", cfg.KeyRecognitionConfidence)
	}
	if cfg.KeyRecognitionPercentage < 0 || cfg.KeyRecognitionPercentage > 1 {
		return errors.Wrapf(ErrInvalidConfig, "key recognition percentage must be between 0 and 1, got %f", cfg.KeyRecognitionPercentage)
	}
	if cfg.KeysAcceptableMisses < 0 {
		return errors.Wrapf(ErrInvalidConfig, "keys acceptable misses must be non-negative, got %d", cfg.KeysAcceptableMisses)
	}
	if cfg.TrackingThreshold < 0 {
		return errors.Wrapf(ErrInvalidConfig, "tracking threshold must be non-negative, got %f", cfg.TrackingThreshold)
	}
	if cfg.TimeToLive <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "time to live must be positive, got %s", cfg.TimeToLive)
	}
	return nil
}
