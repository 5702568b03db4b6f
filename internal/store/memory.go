// internal/store/memory.go
//
// In-memory store of rounds that were issued but not reported finished yet.
//
// Characteristics:
//   - Rounds keyed by game ID, at most one per user: saving a user's new
//     round evicts the previous one.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; the SQL row of such a round
//     stays "playing" until the user's next round closes it.
//   - Take removes a round so it can be finished only once.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/motus/internal/game"
)

var ErrNotFound = errors.New("store: round not found")

// Round is a target handed out to a player.
type Round struct {
	ID         string
	UserID     string
	Difficulty game.Difficulty
	Word       string
	StartedAt  time.Time
}

// Store defines the persistence interface for active rounds.
type Store interface {
	// Save stores r as its user's active round. The round it replaces, if
	// any, is removed and returned.
	Save(ctx context.Context, r *Round) (*Round, error)

	// Get retrieves a round by ID, ErrNotFound if missing.
	Get(ctx context.Context, id string) (*Round, error)

	// Take retrieves and removes a round, ErrNotFound if missing.
	Take(ctx context.Context, id string) (*Round, error)

	// Expired removes and returns the rounds started before cutoff.
	Expired(ctx context.Context, cutoff time.Time) ([]*Round, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex      // guards both maps
	rounds map[string]*Round // keyed by Round.ID
	byUser map[string]string // user ID -> Round.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rounds: make(map[string]*Round), byUser: make(map[string]string)}
}

func (m *memory) Save(ctx context.Context, r *Round) (*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev *Round
	if id, ok := m.byUser[r.UserID]; ok && id != r.ID {
		prev = m.rounds[id]
		delete(m.rounds, id)
	}
	m.rounds[r.ID] = r
	m.byUser[r.UserID] = r.ID
	return prev, nil
}

func (m *memory) Get(ctx context.Context, id string) (*Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rounds[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Take(ctx context.Context, id string) (*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.remove(r)
	return r, nil
}

func (m *memory) Expired(ctx context.Context, cutoff time.Time) ([]*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Round
	for _, r := range m.rounds {
		if r.StartedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	for _, r := range out {
		m.remove(r)
	}
	return out, nil
}

// remove drops r from both maps; caller holds the write lock.
func (m *memory) remove(r *Round) {
	delete(m.rounds, r.ID)
	if m.byUser[r.UserID] == r.ID {
		delete(m.byUser, r.UserID)
	}
}
