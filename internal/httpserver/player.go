package httpserver

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/priceguess/internal/session"
)

// ctxPlayerKey is the context key type for the player id.
type ctxPlayerKey struct{}

// playerHeader carries a freshly issued token for clients without cookie support.
const playerHeader = "X-Player-Token"

// withPlayer resolves the player from a bearer token or the player cookie.
// A missing or invalid token never fails the request: a new anonymous player
// is issued instead.
func (s *Server) withPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := ""
		if tok := s.bearerOrCookie(r); tok != "" {
			if id, err := s.opts.Sessions.Parse(tok); err == nil {
				player = id
			}
		}
		if player == "" {
			player = session.NewPlayerID()
			tok, exp, err := s.opts.Sessions.Issue(player)
			if err != nil {
				log.Error().Err(err).Msg("issue player token")
				writeError(w, http.StatusInternalServerError, "session_failed", "")
				return
			}
			sameSite := http.SameSiteLaxMode
			if s.opts.Secure {
				sameSite = http.SameSiteNoneMode
			}
			http.SetCookie(w, &http.Cookie{
				Name:     s.opts.CookieName,
				Value:    tok,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.opts.Secure,
				SameSite: sameSite,
				Expires:  exp,
			})
			w.Header().Set(playerHeader, tok)
		}
		ctx := context.WithValue(r.Context(), ctxPlayerKey{}, player)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// playerFrom returns the player id placed by withPlayer.
func playerFrom(r *http.Request) string {
	p, _ := r.Context().Value(ctxPlayerKey{}).(string)
	return p
}

// bearerOrCookie extracts a token from the Authorization header or the player cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// keyedMutex serialises work per key (one round at a time) and forgets keys
// nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
