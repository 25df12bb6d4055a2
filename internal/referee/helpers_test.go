package referee

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"clocktower"
	"clocktower/internal/events"
	"clocktower/internal/flavor"
	"clocktower/internal/game"
	"clocktower/internal/platform/platformtest"
)

// manualTimers hands out timer channels the test fires by hand
type manualTimers struct {
	mu     sync.Mutex
	timers []chan time.Time
	delays []time.Duration
}

func (m *manualTimers) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time, 1)
	m.timers = append(m.timers, ch)
	m.delays = append(m.delays, d)
	return ch
}

func (m *manualTimers) Fire(t *testing.T, i int) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	require.Less(t, i, len(m.timers), "timer %d was never armed", i)
	m.timers[i] <- time.Now()
}

func (m *manualTimers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.timers)
}

func (m *manualTimers) Delay(i int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.delays[i]
}

type fixture struct {
	table  *Table
	fake   *platformtest.Fake
	timers *manualTimers
	bus    *events.Bus
	ctx    context.Context
}

// newFixture creates a table on a fake server with a storyteller "st" and
// the given members, all without roles.
func newFixture(t *testing.T, members ...string) *fixture {
	t.Helper()

	fake := platformtest.New()
	fake.AddMember("st", "Storyteller")
	for _, id := range members {
		fake.AddMember(id, "Name "+id)
	}

	catalog, err := flavor.Parse(clocktower.DefaultFlavorYAML, "yaml")
	require.NoError(t, err)

	timers := &manualTimers{}
	bus := events.NewBus()
	table := NewTable("guild-1", fake, Options{
		PublicRooms: []string{"Church", "Bar"},
		Flavor:      catalog,
		Events:      bus,
		Logger:      zerolog.Nop(),
		After:       timers.After,
	})

	f := &fixture{table: table, fake: fake, timers: timers, bus: bus, ctx: context.Background()}
	_, err = table.SetupRoles(f.ctx)
	require.NoError(t, err)
	return f
}

// seated runs the pre-game commands: storyteller, players, channels
func (f *fixture) seated(t *testing.T, players ...string) *game.RoomAssignment {
	t.Helper()

	_, err := f.table.SetStoryteller(f.ctx, "st")
	require.NoError(t, err)
	for _, id := range players {
		_, _, err := f.table.AddPlayer(f.ctx, id)
		require.NoError(t, err)
	}
	rooms, err := f.table.SetupChannels(f.ctx)
	require.NoError(t, err)
	return rooms
}

// started seats the players and starts the game
func (f *fixture) started(t *testing.T, players ...string) *game.RoomAssignment {
	t.Helper()

	rooms := f.seated(t, players...)
	_, err := f.table.StartGame(f.ctx)
	require.NoError(t, err)
	return rooms
}

func (f *fixture) townMessages(rooms *game.RoomAssignment) []string {
	var out []string
	for _, m := range f.fake.Messages(rooms.TownText) {
		out = append(out, m.Content)
	}
	return out
}

func (f *fixture) status(room string) RoomStatus {
	for _, s := range f.table.RoomStatuses() {
		if s.ID == room {
			return s
		}
	}
	return RoomStatus{}
}
