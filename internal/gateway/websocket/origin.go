package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/relayd/relayd/internal/common/logger"
)

// newOriginChecker builds the upgrader's CheckOrigin function from the
// configured allowlist. An empty list (or a "*" entry) allows any origin.
// Requests without an Origin header are non-browser clients and pass; the
// check exists to stop cross-site WebSocket hijacking from browsers.
func newOriginChecker(allowedOrigins []string, log *logger.Logger) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", zap.String("origin", origin))
			continue
		}
		allowed[normalized] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		header := r.Header.Get("Origin")
		if header == "" {
			return true
		}
		normalized, ok := normalizeOrigin(header)
		if !ok {
			return false
		}
		if _, ok := allowed[normalized]; !ok {
			log.Warn("Rejected WebSocket origin", zap.String("origin", header))
			return false
		}
		return true
	}
}

// normalizeOrigin reduces an origin to lowercase scheme://host for
// comparison. Origins without a scheme or host are rejected.
func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
