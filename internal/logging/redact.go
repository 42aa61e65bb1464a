package logging

import (
	"log/slog"
	"strings"

	masker "github.com/goliatone/go-masker"
)

const (
	redacted = "[REDACTED]"
	maskRule = "preserveEnds(2,2)"
)

//nolint:gochecknoglobals // fixed lookup table
var secretKeys = map[string]struct{}{
	"token":         {},
	"value":         {},
	"credential":    {},
	"private_token": {},
	"authorization": {},
	"password":      {},
}

// RedactAttr is a slog ReplaceAttr hook that masks string attributes whose
// key names a secret.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; !ok {
		return a
	}
	if a.Value.Kind() != slog.KindString {
		return slog.String(a.Key, redacted)
	}
	return slog.String(a.Key, Mask(a.Value.String()))
}

// Mask hides all but the first and last two characters of s.
func Mask(s string) string {
	if s == "" || s == redacted {
		return s
	}
	runes := []rune(s)
	if len(runes) <= 8 {
		return strings.Repeat("*", len(runes))
	}
	masked, err := masker.Default.String(maskRule, s)
	if err == nil && masked != s && len([]rune(masked)) == len(runes) && strings.HasPrefix(masked, string(runes[:2])) {
		return masked
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
