package monitor

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// requireAuth is middleware that checks the X-API-Key header. If auth is
// disabled in config, all requests are allowed through.
func (m *Monitor) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.cfg.AuthEnabled {
			next(w, r)
			return
		}

		if key := r.Header.Get(apiKeyHeader); key != "" {
			if name := m.matchAPIKey(key); name != "" {
				m.logger.Debug("api request", "key", name, "path", r.URL.Path)
				next(w, r)
				return
			}
		}

		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
	}
}

// matchAPIKey compares key against every configured key in constant time and
// returns the name of the match, or "". Keys are hashed first so that
// different lengths compare in the same time, and the loop never exits early.
func (m *Monitor) matchAPIKey(key string) string {
	keyHash := sha256.Sum256([]byte(key))
	var matched string
	for _, ak := range m.cfg.APIKeys {
		akHash := sha256.Sum256([]byte(ak.Key))
		if subtle.ConstantTimeCompare(keyHash[:], akHash[:]) == 1 {
			matched = ak.Name
		}
	}
	return matched
}
