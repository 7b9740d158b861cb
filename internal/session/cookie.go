package session

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// CookieStore exposes the session cookies of one HTTP request. Writes are
// buffered and become Set-Cookie headers on Flush, one cookie per key.
type CookieStore struct {
	mutex   sync.Mutex
	fields  map[string]string
	expires time.Time
	pending map[string]*http.Cookie
	secure  bool
	now     func() time.Time
}

// CookieOption configures a CookieStore.
type CookieOption func(*CookieStore)

// WithInsecureCookies drops the Secure attribute, for plain-http development.
func WithInsecureCookies() CookieOption {
	return func(s *CookieStore) { s.secure = false }
}

// WithCookieClock swaps the clock used for buffered expiry.
func WithCookieClock(now func() time.Time) CookieOption {
	return func(s *CookieStore) { s.now = now }
}

// NewCookieStore loads the url and state cookies sent with r.
func NewCookieStore(r *http.Request, opts ...CookieOption) *CookieStore {
	s := &CookieStore{
		fields:  make(map[string]string),
		pending: make(map[string]*http.Cookie),
		secure:  true,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, key := range []string{KeyURL, KeyState} {
		if v, ok := ReadCookie(r, key); ok {
			s.fields[key] = v
		}
	}
	return s
}

// EscapeCookie encodes v the way the site's pages decode cookies, with
// decodeURIComponent: spaces become %20, never +.
func EscapeCookie(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// ReadCookie returns the unescaped value of a non-empty cookie. A literal
// + stays a +.
func ReadCookie(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	v, err := url.PathUnescape(c.Value)
	if err != nil {
		return "", false
	}
	return v, v != ""
}

func (s *CookieStore) Read(ctx context.Context) (Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.fields) == 0 {
		return Record{}, ErrNotFound
	}
	if !s.expires.IsZero() && !s.now().Before(s.expires) {
		return Record{}, ErrNotFound
	}

	copied := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		copied[k] = v
	}
	return FromFields(copied), nil
}

func (s *CookieStore) Write(ctx context.Context, rec Record, expires time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.fields
	s.fields = make(map[string]string)
	s.expires = expires
	for _, f := range rec.Fields() {
		s.fields[f.Key] = f.Value
		s.pending[f.Key] = s.cookie(f.Key, EscapeCookie(f.Value), expires)
	}

	// Keys the new record no longer carries must not linger in the browser.
	for k := range previous {
		if _, ok := s.fields[k]; !ok {
			s.pending[k] = s.expired(k)
		}
	}
	return nil
}

func (s *CookieStore) Delete(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	keys := map[string]struct{}{KeyURL: {}, KeyState: {}}
	for k := range s.fields {
		keys[k] = struct{}{}
	}
	for k := range keys {
		s.pending[k] = s.expired(k)
	}
	s.fields = make(map[string]string)
	s.expires = time.Time{}
	return nil
}

// Flush emits the buffered cookies. Call it before the response header is
// written.
func (s *CookieStore) Flush(w http.ResponseWriter) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	names := make([]string, 0, len(s.pending))
	for name := range s.pending {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		http.SetCookie(w, s.pending[name])
	}
	s.pending = make(map[string]*http.Cookie)
}

func (s *CookieStore) expired(name string) *http.Cookie {
	c := s.cookie(name, "", time.Unix(0, 0))
	c.MaxAge = -1
	return c
}

func (s *CookieStore) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	}
}
