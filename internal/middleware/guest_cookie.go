package middleware

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// GuestCookieName holds the guest's remaining credits.
const GuestCookieName = "guest_credits"

const guestCookieMaxAge = 365 * 24 * time.Hour

// CookieGuestStore keeps a guest's credits in an unsigned cookie, so
// clearing cookies resets the allowance. Changes are written as a single
// Set-Cookie when the response header goes out; writes through Writer()
// trigger that commit.
type CookieGuestStore struct {
	w        http.ResponseWriter
	r        *http.Request
	defaults int

	mu        sync.Mutex
	value     *int
	dirty     bool
	committed bool
}

// NewCookieGuestStore binds a store to one request/response pair.
func NewCookieGuestStore(w http.ResponseWriter, r *http.Request, defaults int) *CookieGuestStore {
	return &CookieGuestStore{w: w, r: r, defaults: defaults}
}

// Get returns the stored counter. A missing or unreadable cookie yields
// the default, which is persisted on commit. Values above the default are
// clamped.
func (s *CookieGuestStore) Get() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value != nil {
		return *s.value
	}

	n, ok := s.read()
	if !ok {
		n = s.defaults
		s.dirty = true
	}
	s.value = &n
	return n
}

func (s *CookieGuestStore) Set(credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed {
		log.Printf("[guest] balance %d set after response header was sent, dropped", credits)
		return
	}
	s.value = &credits
	s.dirty = true
}

// Writer returns a ResponseWriter that commits the cookie before the
// header is written.
func (s *CookieGuestStore) Writer() http.ResponseWriter {
	return &guestCookieWriter{ResponseWriter: s.w, store: s}
}

// commit writes the pending cookie, at most once.
func (s *CookieGuestStore) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed {
		return
	}
	s.committed = true
	if !s.dirty || s.value == nil {
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     GuestCookieName,
		Value:    strconv.Itoa(*s.value),
		Path:     "/",
		MaxAge:   int(guestCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.r.TLS != nil,
	})
}

func (s *CookieGuestStore) read() (int, bool) {
	c, err := s.r.Cookie(GuestCookieName)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(c.Value))
	if err != nil {
		return 0, false
	}
	if n > s.defaults {
		n = s.defaults
	}
	if n < 0 {
		n = 0
	}
	return n, true
}

type guestCookieWriter struct {
	http.ResponseWriter
	store *CookieGuestStore
}

func (g *guestCookieWriter) WriteHeader(status int) {
	g.store.commit()
	g.ResponseWriter.WriteHeader(status)
}

func (g *guestCookieWriter) Write(b []byte) (int, error) {
	g.store.commit()
	return g.ResponseWriter.Write(b)
}

func (g *guestCookieWriter) Flush() {
	g.store.commit()
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *guestCookieWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
