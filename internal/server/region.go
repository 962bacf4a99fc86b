package server

import (
	"net/http"

	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/httputil"
	"github.com/thomasarchive/archive/internal/languages"
)

type RegionLocator interface {
	Region(ip string) string
}

// regionMiddleware stores the request's catalog region in its context.
// Precedence: ?region=, the path's region segment, the client's country,
// then the configured default. The country is never used to redirect.
func regionMiddleware(geo RegionLocator, fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			region := resolveRegion(r, geo, fallback)
			next.ServeHTTP(w, r.WithContext(languages.ContextWithRegion(r.Context(), region)))
		})
	}
}

func resolveRegion(r *http.Request, geo RegionLocator, fallback string) string {
	if q := languages.Normalize(r.URL.Query().Get("region")); languages.IsSupported(q) {
		return q
	}
	if lang := deeplink.LangOf(r.URL.Path); languages.IsSupported(lang) {
		return lang
	}
	if geo != nil {
		if region := geo.Region(httputil.ClientIP(r)); languages.IsSupported(region) {
			return region
		}
	}
	return fallback
}
