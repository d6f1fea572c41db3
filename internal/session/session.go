// Package session keeps one filter.Session per browser, keyed by a cookie.
package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"salesdash/internal/cache"
	"salesdash/internal/filter"
)

// CookieName is the cookie carrying the session id.
const CookieName = "salesdash_session"

// Store hands out sessions. Idle sessions expire after the TTL and the
// least recently used ones are dropped past the size limit.
type Store struct {
	sessions *cache.LRUCache[*filter.Session]
	ctrl     *filter.Controller
	ttl      time.Duration
	secure   bool
}

// Option configures a Store.
type Option func(*Store)

// WithSecureCookie marks the cookie Secure.
func WithSecureCookie() Option {
	return func(s *Store) { s.secure = true }
}

func NewStore(ctrl *filter.Controller, maxSessions int, ttl time.Duration, opts ...Option) *Store {
	s := &Store{ctrl: ctrl, ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = cache.NewLRUCache[*filter.Session](maxSessions, ttl,
		cache.WithSlidingExpiration[*filter.Session](),
		cache.WithEvictCallback(func(id string, _ *filter.Session) {
			slog.Debug("Session evicted", "session_id", id)
		}),
	)
	return s
}

// Cache exposes the backing cache so it can be registered for cleanup.
func (s *Store) Cache() cache.Cleaner {
	return s.sessions
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown or expired. The returned id is the one to hand back to the client.
func (s *Store) GetOrCreate(id string) (string, *filter.Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	sess, existed := s.sessions.GetOrSet(id, func() *filter.Session {
		return filter.NewSession(s.ctrl)
	})
	return id, sess, existed
}

// FromRequest resolves the session of r, setting the cookie on w when a new
// one was created.
func (s *Store) FromRequest(w http.ResponseWriter, r *http.Request) (string, *filter.Session) {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	newID, sess, existed := s.GetOrCreate(id)
	if !existed || newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    newID,
			Path:     "/",
			MaxAge:   int(s.ttl.Seconds()),
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return newID, sess
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	return s.sessions.Size()
}
