package perception

import "sync"

// FeedStats counts frames through a Feed
type FeedStats struct {
	Published uint64 `json:"published"`
	Consumed  uint64 `json:"consumed"`
	Dropped   uint64 `json:"dropped"`
}

// Feed is a single-slot hand-off between the perception producer and
// the modeling loop. Publish replaces any frame not yet consumed, and
// Latest never blocks.
type Feed struct {
	mu     sync.Mutex
	frame  *Frame
	stats  FeedStats
	closed bool
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{}
}

// Publish stores frame as the newest one. A frame that was never read
// is dropped.
func (f *Feed) Publish(frame Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFeedClosed
	}
	if f.frame != nil {
		f.stats.Dropped++
	}
	f.frame = &frame
	f.stats.Published++
	return nil
}

// Latest takes the newest unread frame. ok is false when nothing new
// arrived since the last call.
func (f *Feed) Latest() (Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.frame == nil {
		return Frame{}, false
	}
	frame := *f.frame
	f.frame = nil
	f.stats.Consumed++
	return frame, true
}

// Stats returns the frame counters
func (f *Feed) Stats() FeedStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// Close rejects further publishes. Unread frames stay readable.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
