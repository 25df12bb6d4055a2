package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseClock_Increment(t *testing.T) {
	clock := NewPhaseClock()
	want := []Phase{PhaseDawn, PhaseMidday, PhaseDusk, PhaseNight}

	for cycle := 0; cycle < 3; cycle++ {
		for i, phase := range want {
			clock.Increment()
			assert.Equal(t, phase, clock.Phase)
			if i < 3 {
				assert.Equal(t, 1+cycle, clock.Day, "day only changes when dusk ends")
			}
		}
		assert.Equal(t, 2+cycle, clock.Day, "one day per four phases")
	}
}

func TestPhaseClock_AdvanceTo(t *testing.T) {
	tests := []struct {
		name    string
		start   PhaseClock
		target  Phase
		wantDay int
	}{
		{"forward within day", PhaseClock{Day: 2, Phase: PhaseDawn}, PhaseDusk, 2},
		{"backwards crosses midnight", PhaseClock{Day: 2, Phase: PhaseDusk}, PhaseDawn, 3},
		{"same phase is a full cycle", PhaseClock{Day: 1, Phase: PhaseNight}, PhaseNight, 2},
		{"same midday is a full cycle", PhaseClock{Day: 4, Phase: PhaseMidday}, PhaseMidday, 5},
		{"dusk to night", PhaseClock{Day: 3, Phase: PhaseDusk}, PhaseNight, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := tt.start
			require.NoError(t, clock.AdvanceTo(tt.target))
			assert.Equal(t, tt.wantDay, clock.Day)
			assert.Equal(t, tt.target, clock.Phase)
		})
	}

	t.Run("invalid phase", func(t *testing.T) {
		clock := NewPhaseClock()
		assert.ErrorIs(t, clock.AdvanceTo(Phase(7)), ErrInvalidTime)
		assert.Equal(t, NewPhaseClock(), clock)
	})
}

func TestPhaseClock_JumpTo(t *testing.T) {
	starts := []PhaseClock{
		{Day: 1, Phase: PhaseNight},
		{Day: 5, Phase: PhaseDusk},
		{Day: 9, Phase: PhaseMidday},
	}

	for _, start := range starts {
		for day := 1; day <= 4; day++ {
			for p := PhaseNight; p <= PhaseDusk; p++ {
				clock := start
				require.NoError(t, clock.JumpTo(day, p))
				assert.Equal(t, PhaseClock{Day: day, Phase: p}, clock)
			}
		}
	}

	clock := NewPhaseClock()
	assert.ErrorIs(t, clock.JumpTo(0, PhaseDawn), ErrInvalidTime)
	assert.ErrorIs(t, clock.JumpTo(-3, PhaseDawn), ErrInvalidTime)
	assert.ErrorIs(t, clock.JumpTo(2, Phase(-1)), ErrInvalidTime)
}

func TestPhaseClock_Announcement(t *testing.T) {
	first := PhaseClock{Day: 1, Phase: PhaseNight}.Announcement()
	later := PhaseClock{Day: 2, Phase: PhaseNight}.Announcement()

	assert.Contains(t, first, "Night 1")
	assert.Contains(t, first, "learn your role")
	assert.Contains(t, later, "Night 2")
	assert.NotEqual(t, first, later)

	assert.Contains(t, PhaseClock{Day: 3, Phase: PhaseDawn}.Announcement(), "dawn of Day 3")
	assert.Contains(t, PhaseClock{Day: 3, Phase: PhaseMidday}.Announcement(), "midday of Day 3")
	assert.Contains(t, PhaseClock{Day: 3, Phase: PhaseDusk}.Announcement(), "dusk of Day 3")
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("midday")
	require.NoError(t, err)
	assert.Equal(t, PhaseMidday, p)
	assert.Equal(t, "Midday", p.String())

	_, err = ParsePhase("teatime")
	assert.ErrorIs(t, err, ErrInvalidTime)
}
