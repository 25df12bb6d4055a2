package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"clocktower/internal/config"
	localMiddleware "clocktower/internal/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	RequestTimeout       time.Duration // defaults to 30s, never applied to SSE
}

// SetupRouter creates the status router with all routes and middleware
func SetupRouter(h *Handler, cfg config.HTTPSettings, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if !opts.DisableRequestLogger {
		r.Use(localMiddleware.RequestLogger(h.log))
	}
	r.Use(middleware.Recoverer)
	r.Use(localMiddleware.RequestSizeLimiter(cfg.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	if !opts.DisableRateLimiting {
		rateLimiter := localMiddleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Get("/health/live", h.Live)
		r.Get("/health/ready", h.Ready)
		r.Get("/status", h.ListStatus)
		r.Get("/status/{guild}", h.Status)
		r.Get("/grimoire/{guild}", h.GrimoirePage)
	})

	r.Get("/sse/grimoire/{guild}", ValidateSSERequest(h.StreamGrimoire))

	return r
}

// Live answers as long as the process is up
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Ready answers once the bot is connected to Discord
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		http.Error(w, "not connected", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
