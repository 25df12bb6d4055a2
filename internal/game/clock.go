package game

import (
	"fmt"
	"strings"
)

// Phase is the part of a game day. Each day begins at night.
type Phase int

const (
	PhaseNight Phase = iota
	PhaseDawn
	PhaseMidday
	PhaseDusk
)

const phaseCount = 4

var phaseNames = [phaseCount]string{"Night", "Dawn", "Midday", "Dusk"}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Valid reports whether p is one of the four phases
func (p Phase) Valid() bool {
	return p >= PhaseNight && p <= PhaseDusk
}

// ParsePhase accepts a phase name, case insensitive
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if strings.EqualFold(s, name) {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown phase %q", ErrInvalidTime, s)
}

// PhaseClock tracks the game day and the phase within it
type PhaseClock struct {
	Day   int
	Phase Phase
}

// NewPhaseClock returns a clock set to the first night
func NewPhaseClock() PhaseClock {
	return PhaseClock{Day: 1, Phase: PhaseNight}
}

// Increment moves to the next phase. Leaving dusk starts a new day.
func (c *PhaseClock) Increment() {
	if c.Phase == PhaseDusk {
		c.Day++
	}
	c.Phase = (c.Phase + 1) % phaseCount
}

// AdvanceTo moves forward to target. A target at or before the current
// phase crosses midnight, so asking for the current phase again is a full
// cycle and not a no-op.
func (c *PhaseClock) AdvanceTo(target Phase) error {
	if !target.Valid() {
		return fmt.Errorf("%w: phase %d", ErrInvalidTime, int(target))
	}
	if target <= c.Phase {
		c.Day++
	}
	c.Phase = target
	return nil
}

// JumpTo sets the clock absolutely. It is a storyteller correction and never
// implies a day transition.
func (c *PhaseClock) JumpTo(day int, phase Phase) error {
	if day < 1 {
		return fmt.Errorf("%w: day %d", ErrInvalidTime, day)
	}
	if !phase.Valid() {
		return fmt.Errorf("%w: phase %d", ErrInvalidTime, int(phase))
	}
	c.Day = day
	c.Phase = phase
	return nil
}

func (c PhaseClock) String() string {
	return fmt.Sprintf("day %d, %s", c.Day, c.Phase)
}

// Announcement returns the text posted to the town when the clock changes
func (c PhaseClock) Announcement() string {
	switch c.Phase {
	case PhaseNight:
		if c.Day == 1 {
			return "It is Night 1, all players go to your room and wait to learn your role from the storyteller"
		}
		return fmt.Sprintf("It is Night %d, all players return to your rooms", c.Day)
	case PhaseDawn:
		return fmt.Sprintf("It is the dawn of Day %d, all players gather in the town square", c.Day)
	case PhaseMidday:
		return fmt.Sprintf("It is the midday of Day %d, all players are free to move about and chat", c.Day)
	case PhaseDusk:
		return fmt.Sprintf("It is the dusk of Day %d, all players gather in the town square for nominations", c.Day)
	}
	return fmt.Sprintf("It is day %d, phase %d", c.Day, int(c.Phase))
}
