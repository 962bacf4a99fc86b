package server

import (
	"net/http"
	"strings"

	"github.com/thomasarchive/archive/internal/httputil"
)

// embedFrameSources are the players the embed transform produces links for.
var embedFrameSources = []string{
	"https://www.youtube.com",
	"https://www.youtube-nocookie.com",
	"https://drive.google.com",
}

type SecurityConfig struct {
	BaseURL string
	// ImageHosts are extra origins allowed for covers, e.g. the bucket.
	ImageHosts []string
}

func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")
	images := strings.Join(append([]string{"'self'", "data:", "https://i.ytimg.com"}, cfg.ImageHosts...), " ")
	frames := strings.Join(embedFrameSources, " ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce := httputil.GenerateNonce()
			ctx := httputil.ContextWithNonce(r.Context(), nonce)

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), autoplay=(self \"https://www.youtube.com\" \"https://drive.google.com\")")

			csp := "default-src 'self'; " +
				"img-src " + images + "; " +
				"script-src 'self' 'nonce-" + nonce + "'; " +
				"style-src 'self' 'nonce-" + nonce + "'; " +
				"frame-src " + frames + "; " +
				"connect-src 'self'; " +
				"frame-ancestors 'self';"
			w.Header().Set("Content-Security-Policy", csp)

			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
