package tracking

import "errors"

var (
	// ErrInvalidConfig is returned for configurations that fail Validate
	ErrInvalidConfig = errors.New("tracking: invalid config")

	// ErrNotRunning is returned by Submit once the loop has stopped
	ErrNotRunning = errors.New("tracking: loop not running")
)
