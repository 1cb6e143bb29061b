package entity

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSpecies is returned when the factory meets a species kind
// it cannot build.
var ErrUnsupportedSpecies = errors.New("entity: unsupported species")

// InvalidStateError is the panic value raised when an entity is asked to
// adopt a class id outside its allowed states. It signals a catalog or
// wiring bug and is never recovered from in normal operation.
type InvalidStateError struct {
	Species string
	State   int
	Allowed []int
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("entity: species %q cannot take state %d (allowed %v)", e.Species, e.State, e.Allowed)
}
