package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clocktower/internal/config"
	"clocktower/internal/events"
	"clocktower/internal/flavor"
	"clocktower/internal/handlers"
)

func TestLoadFlavor(t *testing.T) {
	t.Run("embedded default", func(t *testing.T) {
		c, err := loadFlavor("")
		require.NoError(t, err)
		assert.Equal(t, "The good team wins!", c.Ending("good"))
	})

	t.Run("xml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flavor.xml")
		data := `<flavor>
  <endings><ending key="none" name="None">Fin.</ending></endings>
  <deaths><death key="none" name="None">fell.</death></deaths>
  <resurrect>rose.</resurrect>
</flavor>`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		c, err := loadFlavor(path)
		require.NoError(t, err)
		assert.Equal(t, "Fin.", c.Ending("good"))
		assert.Equal(t, "rose.", c.Resurrect)
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flavor.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		_, err := loadFlavor(path)
		assert.ErrorIs(t, err, flavor.ErrUnknownFormat)
	})
}

func TestNewStore(t *testing.T) {
	cfg := config.DefaultConfig()
	catalog, err := loadFlavor("")
	require.NoError(t, err)

	s := newStore(cfg, nil, catalog, events.NewBus())
	table := s.GetOrCreate("g1")
	assert.Equal(t, "g1", table.GuildID)
	assert.Same(t, table, s.GetOrCreate("g1"))
	assert.False(t, table.Session().Active())
}

func TestNewStatusServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HTTP.Port = "8089"

	bus := events.NewBus()
	h := handlers.New(newStore(cfg, nil, nil, bus), bus, func() bool { return false }, zerolog.Nop())
	server := newStatusServer(cfg.HTTP, h)
	assert.Equal(t, "127.0.0.1:8089", server.Addr)
	assert.Equal(t, cfg.HTTP.ReadTimeout, server.ReadTimeout)

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
