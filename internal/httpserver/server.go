// internal/httpserver/server.go
//
// HTTP server wiring for the price guessing backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/metrics", "/debug/catalog".
//   - Round endpoints (player cookie): POST /round/new, POST /round/guess, GET /round/{id},
//     DELETE /round/{id}.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the player cookie works).
//   - Every request on /round is tied to an anonymous player token; rounds are
//     only visible to the player that started them.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/priceguess/internal/daily"
	"github.com/robalobadob/priceguess/internal/game"
	"github.com/robalobadob/priceguess/internal/metrics"
	"github.com/robalobadob/priceguess/internal/session"
	"github.com/robalobadob/priceguess/internal/store"
)

// Options bundles the server's collaborators.
type Options struct {
	Catalog  game.Catalog
	Store    store.Store
	Sessions *session.Issuer

	Random game.Selector // default selection policy; nil uses game.UniformSelector
	Daily  game.Selector // product-of-the-day policy; nil uses daily.Selector with an empty salt

	ClientOrigin string        // CORS origin; defaults to http://localhost:5173
	CookieName   string        // player cookie; defaults to priceguess_player
	Secure       bool          // Secure + SameSite=None cookies
	Timeout      time.Duration // per-request handler bound; defaults to 10s
}

// Server bundles router, round store, and player sessions.
type Server struct {
	r     *chi.Mux
	opts  Options
	locks *keyedMutex
	http  *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(o Options) *Server {
	if o.Random == nil {
		o.Random = game.UniformSelector
	}
	if o.Daily == nil {
		o.Daily = daily.Selector("", nil)
	}
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:5173"
	}
	if o.CookieName == "" {
		o.CookieName = "priceguess_player"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), opts: o, locks: newKeyedMutex()}

	// --- middleware ---
	s.r.Use(chimw.RequestID)          // add X-Request-ID
	s.r.Use(chimw.RealIP)             // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                // zerolog line + latency histogram
	s.r.Use(chimw.Recoverer)          // recover from panics
	s.r.Use(chimw.Timeout(o.Timeout)) // bound handler time
	s.r.Use(jsonContentType)          // default JSON responses
	s.r.Use(corsFor(o.ClientOrigin))  // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"priceguess","endpoints":["/health","/metrics","POST /round/new","POST /round/guess","GET /round/{id}","DELETE /round/{id}"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/metrics", promhttp.Handler())
	s.r.Get("/debug/catalog", func(w http.ResponseWriter, r *http.Request) {
		n := 0
		if o.Catalog != nil {
			n = o.Catalog.Len()
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"products": n})
	})

	s.mountRounds()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	return s
}

// Start begins serving HTTP on addr. It returns nil after Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog records one log line and one latency observation per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("http request")
	})
}

// ------------------------------- helpers -----------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error body with a stable machine-readable code.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorRes{Error: code, Message: msg})
}
