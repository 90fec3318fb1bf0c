package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	tokenCookieName = "adsplit_token"
	tokenCookieTTL  = 24 * time.Hour
)

// credential is where a request presented the dashboard token.
type credential int

const (
	credentialNone credential = iota
	credentialQuery
	credentialHeader
	credentialCookie
)

// presentedToken returns the token a request carries and where it came from.
// A query parameter wins over an Authorization bearer header, which wins over
// the session cookie.
func presentedToken(r *http.Request) (string, credential) {
	if t := r.URL.Query().Get("token"); t != "" {
		return t, credentialQuery
	}
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, t, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(t), credentialHeader
		}
	}
	if c, err := r.Cookie(tokenCookieName); err == nil {
		return c.Value, credentialCookie
	}
	return "", credentialNone
}

// requireToken guards the dashboard. A valid token in the query string is
// traded for a session cookie and the request is redirected to the same URL
// without it, so the token does not linger in history or logs.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, from := presentedToken(r)
		if from == credentialNone || !s.validToken(token) {
			zerolog.Ctx(r.Context()).Debug().
				Str("path", r.URL.Path).
				Bool("presented", from != credentialNone).
				Msg("dashboard access denied")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if from == credentialQuery {
			s.setSessionCookie(w, r)
			clean := *r.URL
			q := clean.Query()
			q.Del("token")
			clean.RawQuery = q.Encode()
			http.Redirect(w, r, clean.String(), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    s.token,
		Path:     "/dashboard",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   int(tokenCookieTTL / time.Second),
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   tokenCookieName,
		Value:  "",
		Path:   "/dashboard",
		MaxAge: -1,
	})
}

func (s *Server) validToken(candidate string) bool {
	return candidate != "" && subtle.ConstantTimeCompare([]byte(candidate), []byte(s.token)) == 1
}
