// internal/httpserver/server.go
//
// HTTP server wiring for the Motus reference API.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", GET /api/leaderboard.
//   - Auth endpoints: /auth/register, /auth/login, /auth/verify (see auth.go).
//   - Game endpoints (require auth): POST /api/game/new-word, POST /api/game/finish.
//   - Graceful start/stop of the listener.
//
// Notes:
//   - CORS allows a single configured origin; clients authenticate with bearer tokens.
//   - Targets are handed to the client, which evaluates guesses locally; the server
//     replays the reported guesses against the round it issued.
//   - A player has at most one active round; unreported rounds end as losses.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/stats"
	"github.com/robalobadob/motus/internal/store"
	"github.com/robalobadob/motus/internal/words"
)

// sweepInterval caps how often expired rounds are looked for.
const sweepInterval = 10 * time.Minute

// Server bundles router, active-round store, word list and DB handle.
type Server struct {
	r      *chi.Mux
	cfg    config.Server
	db     *sql.DB
	stats  *stats.Store
	rounds store.Store
	words  *words.List

	now        func() time.Time
	bcryptCost int
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Server, db *sql.DB, wl *words.List) *Server {
	s := &Server{
		r:          chi.NewRouter(),
		cfg:        cfg,
		db:         db,
		stats:      stats.NewStore(db),
		rounds:     store.NewMemoryStore(),
		words:      wl,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "motus",
			"endpoints": []string{"/health", "/auth/*", "GET /api/user/me", "POST /api/game/new-word", "POST /api/game/finish", "GET /api/leaderboard"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.mountAuthRoutes()
	s.mountGameRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router (useful for tests and embedding).
func (s *Server) Handler() http.Handler { return s.r }

// Run serves on addr until ctx is cancelled, then shuts down within the
// configured grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", s.cfg.Addr).Msg("starting motus-server")
		err := srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if s.cfg.RoundTTL > 0 {
		g.Go(func() error { return s.sweepLoop(gctx, min(s.cfg.RoundTTL, sweepInterval)) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("req", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

// ------------------------------- util --------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
