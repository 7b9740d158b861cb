package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angeloszaimis/hamster/internal/poller"
	"github.com/angeloszaimis/hamster/internal/session"
)

// CallerCookie remembers the page a gated visitor asked for.
const CallerCookie = "caller"

const DefaultCallerTTL = 10 * time.Minute

// Pages are the redirect targets, as absolute paths.
type Pages struct {
	Root       string
	Hamster    string
	Unknown    string
	ServerDown string
}

type SiteHandler struct {
	logger      *slog.Logger
	poller      *poller.Poller
	pages       Pages
	callerTTL   time.Duration
	gateProbe   bool
	secure      bool
	pollTimeout time.Duration
	now         func() time.Time
}

type Option func(*SiteHandler)

// WithCallerTTL sets how long the caller cookie lives.
func WithCallerTTL(ttl time.Duration) Option {
	return func(h *SiteHandler) { h.callerTTL = ttl }
}

// WithGateProbe makes the gate probe the session URL before serving a page.
func WithGateProbe(enabled bool) Option {
	return func(h *SiteHandler) { h.gateProbe = enabled }
}

// WithPollTimeout caps one hamster poll. A poll that runs out of time ends
// on the server-down page. Zero means no cap.
func WithPollTimeout(d time.Duration) Option {
	return func(h *SiteHandler) { h.pollTimeout = d }
}

// WithInsecureCookies drops the Secure attribute from every cookie written.
func WithInsecureCookies(insecure bool) Option {
	return func(h *SiteHandler) { h.secure = !insecure }
}

func NewSiteHandler(logger *slog.Logger, p *poller.Poller, pages Pages, opts ...Option) *SiteHandler {
	h := &SiteHandler{
		logger:    logger,
		poller:    p,
		pages:     pages,
		callerTTL: DefaultCallerTTL,
		secure:    true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Target maps a poll destination to its page.
func (h *SiteHandler) Target(d poller.Destination) string {
	switch d {
	case poller.DestinationRoot:
		return h.pages.Root
	case poller.DestinationServerDown:
		return h.pages.ServerDown
	default:
		return h.pages.Unknown
	}
}

// Hamster runs the poll loop for the requesting visitor and redirects.
func (h *SiteHandler) Hamster(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)
	store := session.NewCookieStore(r, h.cookieOptions()...)

	ctx := r.Context()
	if h.pollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.pollTimeout)
		defer cancel()
	}

	out, err := h.poller.Run(ctx, store)
	if err != nil {
		if r.Context().Err() != nil {
			h.logger.Info("Visitor left while waiting", slog.String("client", clientIP))
			return
		}
		if ctx.Err() != nil {
			h.logger.Warn("Poll ran out of time",
				slog.String("client", clientIP),
				slog.Duration("timeout", h.pollTimeout))
			store.Flush(w)
			http.Redirect(w, r, h.pages.ServerDown, http.StatusFound)
			return
		}
		h.logger.Error("Poll failed", slog.String("client", clientIP), slog.Any("err", err))
		store.Flush(w)
		http.Redirect(w, r, h.pages.Unknown, http.StatusFound)
		return
	}

	store.Flush(w)

	target := h.Target(out.Destination)
	if out.Destination == poller.DestinationRoot {
		if caller, ok := h.callerTarget(r); ok {
			target = caller
		}
		h.clearCaller(w)
	}

	h.logger.Info("Poll finished",
		slog.String("client", clientIP),
		slog.String("destination", string(out.Destination)),
		slog.Int("attempts", out.Attempts),
		slog.String("redirect", target))

	http.Redirect(w, r, target, http.StatusFound)
}

// Gate lets active sessions through to next and sends everyone else to the
// hamster page.
func (h *SiteHandler) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.gated(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		backendURL, hasURL := session.ReadCookie(r, session.KeyURL)
		state, _ := session.ReadCookie(r, session.KeyState)
		if !hasURL || session.State(state) != session.StateActive {
			h.sendToHamster(w, r, "no active session")
			return
		}

		if h.gateProbe {
			if err := h.poller.Probe(r.Context(), backendURL); err != nil {
				h.logger.Warn("Gate probe failed",
					slog.String("url", backendURL),
					slog.Any("err", err))
				h.sendToHamster(w, r, "backend unreachable")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// gated reports whether path is an HTML page that needs a session. The
// poller's own pages never are.
func (h *SiteHandler) gated(path string) bool {
	switch path {
	case h.pages.Hamster, h.pages.Unknown, h.pages.ServerDown:
		return false
	}
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html") || path == h.pages.Root
}

func (h *SiteHandler) sendToHamster(w http.ResponseWriter, r *http.Request, reason string) {
	h.logger.Info("Redirecting to hamster",
		slog.String("client", extractClientIP(r)),
		slog.String("path", r.URL.Path),
		slog.String("reason", reason))

	http.SetCookie(w, &http.Cookie{
		Name:     CallerCookie,
		Value:    session.EscapeCookie(r.URL.RequestURI()),
		Path:     "/",
		Expires:  h.now().Add(h.callerTTL),
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})
	http.Redirect(w, r, h.pages.Hamster, http.StatusFound)
}

// callerTarget returns the remembered page if it is a local path and not
// the hamster page itself.
func (h *SiteHandler) callerTarget(r *http.Request) (string, bool) {
	raw, ok := session.ReadCookie(r, CallerCookie)
	if !ok {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Host != "" && u.Host != r.Host {
		return "", false
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || u.Path == h.pages.Hamster {
		return "", false
	}

	target := u.Path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target, true
}

func (h *SiteHandler) clearCaller(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CallerCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})
}

func (h *SiteHandler) cookieOptions() []session.CookieOption {
	if h.secure {
		return nil
	}
	return []session.CookieOption{session.WithInsecureCookies()}
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
