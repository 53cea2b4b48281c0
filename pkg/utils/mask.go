package utils

import (
	"regexp"
	"strings"
)

var (
	dsnPasswordRegex = regexp.MustCompile(`(://[^:/@]*:)(.*)(@[^@]*)$`)
	kvPasswordRegex  = regexp.MustCompile(`(?i)(password=)(\S+)`)
)

// sensitiveHeaders are masked by MaskHeaders (canonical form).
var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"X-Api-Key":     true,
}

// MaskDSN hides the password of a URL or key=value connection string.
func MaskDSN(dsn string) string {
	dsn = dsnPasswordRegex.ReplaceAllString(dsn, "${1}***${3}")
	return kvPasswordRegex.ReplaceAllString(dsn, "${1}***")
}

// MaskSecret keeps the first four characters of values long enough to
// identify, e.g. "abcd***".
func MaskSecret(s string) string {
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "***"
	}
	return s[:4] + "***"
}

// MaskHeaders returns a copy of h safe to log. Bearer tokens keep their
// scheme.
func MaskHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if !sensitiveHeaders[canonical(k)] {
			out[k] = v
			continue
		}
		if scheme, token, ok := strings.Cut(v, " "); ok {
			out[k] = scheme + " " + MaskSecret(token)
			continue
		}
		out[k] = MaskSecret(v)
	}
	return out
}

func canonical(k string) string {
	parts := strings.Split(strings.ToLower(k), "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}
