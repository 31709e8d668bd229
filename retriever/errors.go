package retriever

import "github.com/pkg/errors"

var (
	// ErrInvalidFieldOfView is returned for field of view values outside (0, 180) degrees
	ErrInvalidFieldOfView = errors.New("invalid field of view")
	// ErrUnknownObject is returned by registries for identifiers they do not hold
	ErrUnknownObject = errors.New("unknown registry object")
	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("invalid configuration")
)
