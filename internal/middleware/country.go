package middleware

import (
	"context"
	"net/http"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra/geoip"
)

type countryContextKey struct{}

// CountryKey stores the suggested target country on the request context.
var CountryKey = countryContextKey{}

// Country resolves a default target country for the viral pipeline: an
// explicit X-Country header wins, then a GeoIP lookup of the client IP.
// Resolution is advisory; requests proceed untouched when both fail.
func Country(resolver geoip.CountryResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := strings.TrimSpace(r.Header.Get("X-Country"))
			if country == "" && resolver != nil {
				if code, err := resolver.CountryCode(ClientIP(r)); err == nil {
					country = domain.CountryFromISO(code)
				}
			}
			if country != "" {
				ctx := context.WithValue(r.Context(), CountryKey, country)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CountryFromContext returns the suggested country, or "" when unresolved.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}
