package referee

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when another command holds the gate
var ErrBusy = errors.New("currently processing another command, please wait")

// Gate lets one game-changing command run at a time. A command arriving
// while the gate is held is turned away, never queued.
type Gate struct {
	mu sync.Mutex
}

// Run executes fn while holding the gate
func (g *Gate) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !g.mu.TryLock() {
		return ErrBusy
	}
	defer g.mu.Unlock()

	return fn(ctx)
}
