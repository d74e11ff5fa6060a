// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. It scrubs the
// secrets this API hands out before anything reaches the log:
//
//   - host keys passed as the hostKey query parameter,
//   - voter keys carried in the voter cookie or the X-Voter-Key header,
//   - anything that looks like a generated secret (36 lowercase hex chars).
//
// It also attaches a request-scoped zerolog.Logger to the Gin context so
// handlers can log with the correlation ID already set (see LoggerFrom).
// Request and response bodies are never logged.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Voter-Key"},
//	    MaskQuery:   []string{"hostKey"},
//	}))
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	redacted = "[REDACTED]"
	// maxQueryLogLength caps the number of bytes of the query string logged.
	maxQueryLogLength = 2048
)

// secretRE matches generated host and voter keys.
var secretRE = regexp.MustCompile(`\b[0-9a-f]{36}\b`)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra header names (case-insensitive) whose values are
// replaced wholesale; "Authorization", "Cookie" and "Set-Cookie" are always
// masked. MaskQuery lists query parameter names (case-insensitive) whose
// values are replaced.
type RedactOptions struct {
	MaskHeaders []string
	MaskQuery   []string
}

// RedactingLogger returns a Gin middleware that logs each request once it
// completes, at INFO for 2xx/3xx, WARN for 4xx and ERROR for 5xx or when
// handlers attached errors to the context.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	maskQuery := map[string]struct{}{}
	for _, q := range opts.MaskQuery {
		if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
			maskQuery[q] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rid := RequestIDFrom(c)

		l := log.With().
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set(loggerKey, &l)

		safeQuery := truncate(redactQuery(c.Request.URL.RawQuery, maskQuery), maxQueryLogLength)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = redacted
				continue
			}
			safeHeaders[k] = secretRE.ReplaceAllString(strings.Join(vv, ", "), redacted)
		}

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}

		ev.
			Str("query", safeQuery).
			Str("user_agent", c.Request.UserAgent()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}

// redactQuery masks the values of sensitive parameters and any embedded
// secrets. Unparseable queries are scrubbed with the pattern only.
func redactQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return secretRE.ReplaceAllString(raw, redacted)
	}
	for k, vv := range vals {
		if _, ok := mask[strings.ToLower(k)]; ok {
			for i := range vv {
				vv[i] = redacted
			}
			continue
		}
		for i, v := range vv {
			vv[i] = secretRE.ReplaceAllString(v, redacted)
		}
	}
	out, _ := url.QueryUnescape(vals.Encode())
	return out
}
