package server

import (
	"net/http"
	"strings"

	"github.com/alnah/go-mdblog"
)

// ThemeCookie is the cookie holding the chosen theme.
const ThemeCookie = "theme"

// Client hint carrying the platform color scheme ("light" or "dark").
const prefersColorSchemeHeader = "Sec-CH-Prefers-Color-Scheme"

const themeCookieMaxAge = 365 * 24 * 60 * 60

// cookieThemeStore persists the theme of one request in a cookie. Save only
// writes a Set-Cookie header when the value changes.
type cookieThemeStore struct {
	w      http.ResponseWriter
	stored mdblog.Theme
	found  bool
}

func newCookieThemeStore(w http.ResponseWriter, r *http.Request) *cookieThemeStore {
	s := &cookieThemeStore{w: w}
	if c, err := r.Cookie(ThemeCookie); err == nil {
		if t, err := mdblog.ParseTheme(c.Value); err == nil {
			s.stored, s.found = t, true
		}
	}
	return s
}

func (s *cookieThemeStore) Load() (mdblog.Theme, bool) {
	return s.stored, s.found
}

func (s *cookieThemeStore) Save(t mdblog.Theme) error {
	if s.found && s.stored == t {
		return nil
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     ThemeCookie,
		Value:    string(t),
		Path:     "/",
		MaxAge:   themeCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.stored, s.found = t, true
	return nil
}

var _ mdblog.ThemeStore = (*cookieThemeStore)(nil)

// ambientTheme reads the platform preference from the client hint. Anything
// but an explicit dark preference is light.
func ambientTheme(r *http.Request) mdblog.Theme {
	v := strings.Trim(strings.TrimSpace(r.Header.Get(prefersColorSchemeHeader)), `"`)
	if t, err := mdblog.ParseTheme(v); err == nil {
		return t
	}
	return mdblog.ThemeLight
}

// withTheme installs a per-request ThemeState backed by the theme cookie and
// asks clients for the color scheme hint on later requests.
func (s *Server) withTheme(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-CH", prefersColorSchemeHeader)
		w.Header().Add("Vary", prefersColorSchemeHeader)

		state, err := mdblog.NewThemeState(newCookieThemeStore(w, r), ambientTheme(r))
		if err != nil {
			s.log.Error("theme state", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(mdblog.WithThemeState(r.Context(), state)))
	})
}
