package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys lists attribute keys whose values are never written verbatim.
// Keys are matched case-insensitively.
var sensitiveKeys = map[string]bool{
	// HTTP headers sent to the wiki API
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"proxy-authorization": true,

	// MediaWiki login and action tokens
	"lgpassword":   true,
	"lgtoken":      true,
	"logintoken":   true,
	"csrftoken":    true,
	"token":        true,
	"bot_password": true,
	"oauth_token":  true,

	// Session cookies
	"session":             true,
	"centralauth_session": true,
	"centralauth_token":   true,

	// Generic credentials
	"password": true,
	"passwd":   true,
	"secret":   true,
	"api_key":  true,
	"apikey":   true,
}

// sensitiveSubstrings catches composite keys such as "wiki_session" or "x-auth-token".
var sensitiveSubstrings = []string{
	"password",
	"token",
	"cookie",
	"session",
	"secret",
	"authorization",
}

// sensitivePatterns match values that carry credentials regardless of their key.
var sensitivePatterns = []*regexp.Regexp{
	// Bearer and Basic authorization values
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`),
	// Raw cookie header values carrying a wiki session
	regexp.MustCompile(`(?i)(^|;\s*)\w*(session|token|userid)=[^;]+`),
	// MediaWiki tokens end with the literal "+\"
	regexp.MustCompile(`^[0-9a-f]{32,}\+\\$`),
}

// sensitiveQueryParams are masked inside URL values rather than masking the whole URL.
var sensitiveQueryParams = []string{
	"token",
	"lgtoken",
	"lgpassword",
	"logintoken",
	"csrftoken",
	"password",
}

// MaskValue replaces sensitive values in log output.
const MaskValue = "***REDACTED***"

// SecureHandler wraps a slog.Handler and masks credentials before records
// reach the underlying handler.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler falls back to slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a handler whose preset attributes are already sanitized.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(clean)}
}

// WithGroup returns a handler that nests subsequent attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		clean := make([]slog.Attr, len(group))
		for i, ga := range group {
			clean[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	case slog.KindString:
		return slog.String(a.Key, sanitizeString(a.Value.String()))
	case slog.KindAny:
		if headers, ok := a.Value.Any().(map[string]string); ok {
			return slog.Any(a.Key, sanitizeHeaders(headers))
		}
	}
	return a
}

func sanitizeString(value string) string {
	if isSensitiveValue(value) {
		return MaskValue
	}
	if strings.Contains(value, "://") && strings.Contains(value, "?") {
		return sanitizeURL(value)
	}
	return value
}

// sanitizeHeaders returns a copy of headers with credential entries masked.
func sanitizeHeaders(headers map[string]string) map[string]string {
	clean := make(map[string]string, len(headers))
	for k, v := range headers {
		if isSensitiveKey(k) || isSensitiveValue(v) {
			clean[k] = MaskValue
			continue
		}
		clean[k] = v
	}
	return clean
}

// sanitizeURL masks token-like query parameters and any embedded password.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	changed := false
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), MaskValue)
			changed = true
		}
	}
	q := u.Query()
	for _, p := range sensitiveQueryParams {
		if q.Has(p) {
			q.Set(p, MaskValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	return containsSensitiveKeyword(lower)
}

func containsSensitiveKeyword(key string) bool {
	for _, kw := range sensitiveSubstrings {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger returns a text logger on w that masks credentials.
// It logs Warn and above, or Debug and above when verbose is set.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output, used by the serve command.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})))
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
