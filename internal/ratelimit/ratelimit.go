// internal/ratelimit/ratelimit.go
package ratelimit

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Limiter is a fixed-window counter kept in the shared relational store, so
// the limit holds across every instance of the service. Process-local state is
// deliberately avoided here.
type Limiter struct {
	DB     *sql.DB
	Limit  int
	Window time.Duration
	Log    zerolog.Logger
}

// Allow counts one hit for key in the current window and reports whether the
// key is still under the limit. The upsert makes concurrent hits race safely
// to a single counter row per window.
func (l *Limiter) Allow(key string) (bool, error) {
	windowStart := time.Now().UTC().Truncate(l.Window)
	query := `
        INSERT INTO rate_limit_counters (key, window_start, count)
        VALUES ($1, $2, 1)
        ON CONFLICT (key, window_start)
        DO UPDATE SET count = rate_limit_counters.count + 1
        RETURNING count
    `
	var count int
	if err := l.DB.QueryRow(query, key, windowStart).Scan(&count); err != nil {
		return false, err
	}
	return count <= l.Limit, nil
}

// Middleware limits requests per key, keyed by keyFn (typically the team id).
// On a store error the request proceeds: losing a window of limiting is better
// than refusing sends.
func (l *Limiter) Middleware(keyFn func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := l.Allow(key)
			if err != nil {
				l.Log.Error().Err(err).Str("key", key).Msg("rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
