package oauth

import (
	"net/http"
	"time"
)

// CookieSink delivers artifacts as a hardened cookie on an HTTP response:
// not script-readable, transported only over encrypted channels, and
// same-site restricted. It is the production ArtifactSink.
type CookieSink struct {
	// Writer is the response the cookie is set on.
	Writer http.ResponseWriter

	// Name is the cookie name (config default: "ms_graph").
	Name string

	// MaxAge bounds the artifact's client-side lifetime.
	MaxAge time.Duration
}

// StoreArtifact implements ArtifactSink.
func (s *CookieSink) StoreArtifact(artifact string) error {
	http.SetCookie(s.Writer, &http.Cookie{
		Name:     s.Name,
		Value:    artifact,
		Path:     "/",
		MaxAge:   int(s.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearArtifactCookie expires the artifact cookie on the response. This is
// the design's only deletion path: there is no server-side copy to remove.
func ClearArtifactCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
