package auth

import (
	"net/http"
	"time"
)

const cookieName = "token"

// CookieSettings controls how the access token cookie is written.
type CookieSettings struct {
	Secure   bool
	SameSite http.SameSite
}

// CookieSettingsFor derives cookie flags from the deployment environment.
// Secure cookies require HTTPS, so they are only enabled outside local/dev.
func CookieSettingsFor(env string) CookieSettings {
	s := CookieSettings{SameSite: http.SameSiteStrictMode}
	switch env {
	case "local", "development", "dev", "test":
		s.SameSite = http.SameSiteLaxMode
	default:
		s.Secure = true
	}
	return s
}

// SetAuthCookie sets the access token in an HttpOnly cookie.
func SetAuthCookie(w http.ResponseWriter, s CookieSettings, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

func ClearAuthCookie(w http.ResponseWriter, s CookieSettings) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
		Path:     "/",
		MaxAge:   -1,
	})
}
