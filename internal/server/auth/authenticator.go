package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/transitwatch/internal/common"
)

// SessionAuthenticator reads the session token from the "token" cookie or an
// "Authorization: Bearer" header.
type SessionAuthenticator struct {
	secretKey []byte
	ttl       time.Duration
	secure    bool
}

func NewSessionAuthenticator(secretKey []byte, ttl time.Duration, secureCookies bool) *SessionAuthenticator {
	return &SessionAuthenticator{secretKey: secretKey, ttl: ttl, secure: secureCookies}
}

// Authenticate returns the caller's user id and true when the request carries
// a valid session token.
func (a *SessionAuthenticator) Authenticate(r *http.Request) (int64, bool) {
	tok := bearerToken(r)
	if tok == "" {
		c, err := r.Cookie(common.SessionCookieName)
		if err != nil {
			return 0, false
		}
		tok = c.Value
	}
	if tok == "" {
		return 0, false
	}

	id, err := GetUserIDFromToken(tok, a.secretKey)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Issue writes a fresh session cookie for userID and returns the token.
func (a *SessionAuthenticator) Issue(w http.ResponseWriter, userID int64) (string, error) {
	tok, err := GenerateToken(userID, a.secretKey, a.ttl)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return tok, nil
}

// Clear expires the session cookie.
func (a *SessionAuthenticator) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}
