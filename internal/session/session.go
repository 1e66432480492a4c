// Package session keeps one cart per visitor in memory.
//
// Sessions expire after a period of inactivity and the store holds a bounded
// number of them; the least recently used session is dropped first.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xenking/bistro-kart/internal/domain/cart"
)

// Session owns a single cart. All cart access goes through Do, which
// serializes concurrent requests of the same visitor.
type Session struct {
	id string

	mu      sync.Mutex
	cart    *cart.Cart
	pending []cart.Event
}

func newSession(id string) *Session {
	s := &Session{id: id}
	s.cart = cart.New(cart.NotifierFunc(func(e cart.Event) {
		s.pending = append(s.pending, e)
	}))
	return s
}

// ID returns the session identifier carried by the visitor's cookie.
func (s *Session) ID() string { return s.id }

// Do runs fn with exclusive access to the cart and returns the change
// events fn produced, in emission order.
func (s *Session) Do(fn func(c *cart.Cart)) []cart.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.cart)
	events := s.pending
	s.pending = nil
	return events
}

// Config configures the Store.
type Config struct {
	// TTL is the idle time after which a session expires.
	TTL time.Duration
	// MaxSessions bounds the number of live sessions.
	MaxSessions int
}

// Store maps session ids to sessions.
type Store struct {
	sessions *expirable.LRU[string, *Session]
	// mu makes lookup-or-create atomic.
	mu sync.Mutex
}

// NewStore creates a Store. Zero values fall back to a 2h TTL and 10000
// sessions.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 10000
	}
	return &Store{
		sessions: expirable.NewLRU[string, *Session](cfg.MaxSessions, nil, cfg.TTL),
	}
}

// Acquire returns the live session for id, refreshing its expiry. When id is
// empty, unknown or expired a fresh session with a new id is created and
// created is true.
func (s *Store) Acquire(id string) (sess *Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.resume(id); ok {
		return sess, false
	}

	sess = newSession(uuid.NewString())
	s.sessions.Add(sess.id, sess)
	return sess, true
}

// Resume returns the live session for id and refreshes its expiry. Unlike
// Acquire it never creates a session.
func (s *Store) Resume(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume(id)
}

func (s *Store) resume(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	sess, ok := s.sessions.Get(id)
	if ok {
		// Re-adding resets the expiry.
		s.sessions.Add(id, sess)
	}
	return sess, ok
}

// Lookup returns the live session for id without creating one or
// refreshing its expiry.
func (s *Store) Lookup(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return s.sessions.Get(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}
