// Package redact scrubs credentials out of text before it reaches logs or the terminal.
package redact

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const redactedText = "[REDACTED]"

var (
	// key=value style secrets; group 1 is the key, group 2 the value.
	keyValuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)("?(?:api[_-]?key|apikey)"?\s*[:=]\s*)"?([a-zA-Z0-9_\-]{12,})"?`),
		regexp.MustCompile(`(?i)("?(?:access[_-]?token|id[_-]?token|token)"?\s*[:=]\s*)"?([a-zA-Z0-9_.\-]{12,})"?`),
		regexp.MustCompile(`(?i)("?(?:password|passwd|pwd)"?\s*[:=]\s*)"?([^"'\s,}]{4,})"?`),
		regexp.MustCompile(`(?i)("?(?:secret|private[_-]?key)"?\s*[:=]\s*)"?([a-zA-Z0-9_/+=.\-]{12,})"?`),
	}

	// Whole-match secrets.
	tokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_.\-]{12,}`),
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
		regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36}`),
		regexp.MustCompile(`(?i)(postgres|mysql|mongodb|redis)://[^:/\s]+:[^@\s]+@`),
	}

	sensitiveParams = []string{"key", "api_key", "apikey", "token", "access_token", "password", "secret"}
)

// Secrets redacts credentials found anywhere in text.
func Secrets(text string) string {
	result := text
	for _, p := range keyValuePatterns {
		result = p.ReplaceAllString(result, "${1}"+redactedText)
	}
	for _, p := range tokenPatterns {
		result = p.ReplaceAllString(result, redactedText)
	}
	return result
}

// Snippet returns at most max bytes of body with secrets redacted.
func Snippet(body []byte, max int) string {
	s := strings.TrimSpace(string(body))
	if max > 3 && len(s) > max {
		s = s[:max-3] + "..."
	}
	return Secrets(s)
}

// URL strips user info and sensitive query parameters from raw.
// Unparseable input is passed through Secrets instead.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return Secrets(raw)
	}
	if u.User != nil {
		u.User = url.User(redactedText)
	}
	q := u.Query()
	changed := false
	for name := range q {
		for _, s := range sensitiveParams {
			if strings.EqualFold(name, s) {
				q.Set(name, redactedText)
				changed = true
			}
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Headers returns a copy of h with credential-bearing headers masked.
func Headers(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization", "Proxy-Authorization", "Cookie", "X-Api-Key", "X-Goog-Api-Key":
			out[k] = []string{redactedText}
		default:
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

// ContainsSecret reports whether text holds anything Secrets would redact.
func ContainsSecret(text string) bool {
	return Secrets(text) != text
}
