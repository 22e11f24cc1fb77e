// internal/store/memory.go
//
// Round persistence for the lifetime of a player session.
//
// Characteristics:
//   - Rounds are keyed by (player, round id); another player's round is not found.
//   - The in-memory Store is concurrency-safe via RWMutex and clones rounds in and
//     out, so callers never share a *game.Round with the store.
//   - Entries expire after the configured TTL. State is lost on restart.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/priceguess/internal/game"
)

// ErrNotFound is returned when no live round matches the key.
var ErrNotFound = errors.New("round not found")

// Store defines the persistence interface for rounds.
type Store interface {
	// Save persists or updates a round owned by player.
	Save(ctx context.Context, player string, r *game.Round) error

	// Get retrieves a round by owner and id.
	// Returns ErrNotFound if missing or expired.
	Get(ctx context.Context, player, id string) (*game.Round, error)

	// Delete drops a round. Deleting a missing round is not an error.
	Delete(ctx context.Context, player, id string) error
}

func key(player, id string) string { return player + "|" + id }

type entry struct {
	round   *game.Round
	expires time.Time // zero means never
}

// sweepEvery is the minimum gap between two prunes of expired rounds.
const sweepEvery = time.Minute

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu        sync.RWMutex     // guards rounds and nextSweep
	rounds    map[string]entry // keyed by player|id
	nextSweep time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryStore constructs an in-memory Store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) Store {
	return newMemory(ttl, time.Now)
}

func newMemory(ttl time.Duration, now func() time.Time) *memory {
	return &memory{rounds: make(map[string]entry), ttl: ttl, now: now}
}

// Save stores a copy of r. At most once per sweepEvery it also prunes
// expired entries; until then Get hides them.
func (m *memory) Save(ctx context.Context, player string, r *game.Round) error {
	now := m.now()
	e := entry{round: r.Clone()}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl > 0 && !now.Before(m.nextSweep) {
		m.sweep(now)
		m.nextSweep = now.Add(sweepEvery)
	}
	m.rounds[key(player, r.ID)] = e
	return nil
}

// sweep drops expired entries. Callers hold mu.
func (m *memory) sweep(now time.Time) {
	for k, old := range m.rounds {
		if old.expired(now) {
			delete(m.rounds, k)
		}
	}
}

// Get returns a copy of the stored round.
func (m *memory) Get(ctx context.Context, player, id string) (*game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rounds[key(player, id)]
	if !ok || e.expired(m.now()) {
		return nil, ErrNotFound
	}
	return e.round.Clone(), nil
}

// Delete removes the round if present.
func (m *memory) Delete(ctx context.Context, player, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, key(player, id))
	return nil
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}
