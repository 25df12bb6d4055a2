package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clocktower/internal/config"
	"clocktower/internal/events"
	"clocktower/internal/platform/platformtest"
	"clocktower/internal/referee"
	"clocktower/internal/store"
)

type testEnv struct {
	handler *Handler
	router  http.Handler
	bus     *events.Bus
	fake    *platformtest.Fake
}

func newTestEnv(t *testing.T, ready func() bool) *testEnv {
	t.Helper()

	fake := platformtest.New()
	bus := events.NewBus()
	s := store.NewMemoryStore(func(guildID string) *referee.Table {
		return referee.NewTable(guildID, fake, referee.Options{
			PublicRooms: []string{"Church", "Bar"},
			Events:      bus,
			Logger:      zerolog.Nop(),
		})
	})
	h := New(s, bus, ready, zerolog.Nop())
	cfg := config.DefaultConfig().HTTP
	r := SetupRouter(h, cfg, &RouterOptions{DisableRateLimiting: true, DisableRequestLogger: true})
	return &testEnv{handler: h, router: r, bus: bus, fake: fake}
}

// seat creates a table with a storyteller and two players
func (e *testEnv) seat(t *testing.T, guildID string) *referee.Table {
	t.Helper()

	e.fake.AddMember("st", "Stella")
	e.fake.AddMember("p1", "Ann")
	e.fake.AddMember("p2", "Bob")

	ctx := context.Background()
	table := e.handler.Store().GetOrCreate(guildID)
	_, err := table.SetupRoles(ctx)
	require.NoError(t, err)
	_, err = table.SetStoryteller(ctx, "st")
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2"} {
		_, _, err := table.AddPlayer(ctx, id)
		require.NoError(t, err)
	}
	return table
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	connected := false
	env := newTestEnv(t, func() bool { return connected })

	w := env.get("/health/live")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.get("/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	connected = true
	w = env.get("/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestHandler_NilReadyIsAlwaysReady(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.get("/health/ready").Code)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("unknown guild", func(t *testing.T) {
		w := env.get("/status/nope")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	env.seat(t, "g1")

	t.Run("seated table", func(t *testing.T) {
		w := env.get("/status/g1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var got TableStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "g1", got.GuildID)
		assert.False(t, got.Active)
		assert.False(t, got.ChannelsReady)
		assert.Equal(t, "Stella", got.Storyteller)
		require.Len(t, got.Players, 2)
		assert.Equal(t, "Ann", got.Players[0].Name)
		assert.True(t, got.Players[0].Alive)
		assert.True(t, got.Players[0].GhostVote)
		assert.Empty(t, got.Rooms)
	})

	t.Run("list", func(t *testing.T) {
		env.handler.Store().GetOrCreate("g0")

		w := env.get("/status")
		require.Equal(t, http.StatusOK, w.Code)

		var got []TableStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "g0", got[0].GuildID)
		assert.Equal(t, "g1", got[1].GuildID)
	})

	t.Run("rooms after setup", func(t *testing.T) {
		table, err := env.handler.Store().GetTable("g1")
		require.NoError(t, err)
		_, err = table.SetupChannels(context.Background())
		require.NoError(t, err)

		var got TableStatus
		require.NoError(t, json.Unmarshal(env.get("/status/g1").Body.Bytes(), &got))
		assert.True(t, got.ChannelsReady)
		require.Len(t, got.Rooms, 2)
		assert.Equal(t, "Church", got.Rooms[0].Name)
		assert.False(t, got.Rooms[0].Locked)
	})
}

func TestGrimoirePage(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/grimoire/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.seat(t, "g1")
	w = env.get("/grimoire/g1")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `@get('/sse/grimoire/g1')`)
	assert.Contains(t, body, `<section id="grimoire">`)
	assert.Contains(t, body, "Stella")
	assert.Contains(t, body, "Ann")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestStreamGrimoire(t *testing.T) {
	t.Run("unknown guild", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.get("/sse/grimoire/nope")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects unknown parameters", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.handler.Store().GetOrCreate("g1")
		w := env.get("/sse/grimoire/g1?evil=1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("patches on table events", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.seat(t, "g1")

		srv := httptest.NewServer(env.router)
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse/grimoire/g1", nil)
		require.NoError(t, err)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

		require.Eventually(t, func() bool {
			return env.bus.Subscribers("g1") == 1
		}, time.Second, 10*time.Millisecond)

		env.bus.Publish(events.Event{Type: events.TypeRoster, GuildID: "g1"})

		found := false
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.Contains(line, `id="grimoire"`) {
				assert.Contains(t, line, "Ann")
				found = true
				break
			}
		}
		assert.True(t, found, "expected a grimoire patch")

		cancel()
		require.Eventually(t, func() bool {
			return env.bus.Subscribers("g1") == 0
		}, time.Second, 10*time.Millisecond)
	})
}
