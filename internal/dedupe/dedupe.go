// Package dedupe suppresses redelivered device events within a time window.
//
// The device channel is at-least-once; events that carry an event_id are
// recorded here so a redelivery cannot credit the same disposal twice.
package dedupe

import "context"

// Deduper decides whether an event ID was already processed recently.
type Deduper interface {
	// Seen marks the ID and reports whether it was already recorded inside
	// the window. The first caller for a given ID gets false.
	Seen(ctx context.Context, eventID string) (bool, error)

	// Forget releases a claimed ID so a future redelivery is treated as new.
	// Called when processing fails after Seen claimed the ID.
	Forget(ctx context.Context, eventID string) error
}

// Noop never suppresses anything. Used when no Redis is configured.
type Noop struct{}

// Seen always reports the event as new.
func (Noop) Seen(context.Context, string) (bool, error) { return false, nil }

// Forget has nothing to release.
func (Noop) Forget(context.Context, string) error { return nil }
