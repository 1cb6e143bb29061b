package perception

import "errors"

var (
	// ErrFeedClosed is returned when publishing to a closed feed
	ErrFeedClosed = errors.New("perception: feed closed")

	// ErrNoDetector is returned for image frames when no local detector
	// is configured
	ErrNoDetector = errors.New("perception: image frame without detector")

	// ErrUnknownMessage is returned for messages of an unknown type
	ErrUnknownMessage = errors.New("perception: unknown message type")
)
