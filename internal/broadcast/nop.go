package broadcast

import "context"

// Nop is a Publisher that discards every event.
type Nop struct{}

var _ Publisher = Nop{}

// Publish discards the event.
func (Nop) Publish(ctx context.Context, ev Event) {}
