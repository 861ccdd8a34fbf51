package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/planning-admin/pkg/logger"
	"github.com/go-chi/chi"
)

// maxLoggedBody caps how much of a body is read into a log line.
const maxLoggedBody = 64 << 10

const filtered = "[FILTERED]"

// sensitiveFields are substrings of header and JSON keys that are never logged.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"key",
	"session",
	"credential",
	"cookie",
}

// quietPaths are probed constantly and only logged at debug level.
var quietPaths = map[string]bool{
	"/api/v1/health": true,
	"/api/v1/ping":   true,
	"/metrics":       true,
}

// AttachLogger makes lg the base of every request logger.
func AttachLogger(lg *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.NewContext(r.Context(), lg)))
		})
	}
}

// LoggingMiddleware logs one line per request through the request scoped
// logger, so trace, user and organization ids ride along. Bodies are only
// captured when debug logging is on.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := logger.FromOr(r.Context(), fallback)
			withBodies := lg.Enabled(r.Context(), slog.LevelDebug)

			var reqBody []byte
			if withBodies {
				reqBody = peekBody(r)
			}

			ww := &responseWriter{ResponseWriter: w}
			if withBodies {
				ww.body = &bytes.Buffer{}
			}

			next.ServeHTTP(ww, r)

			logCompleted(lg, r, ww, reqBody, time.Since(start))
		})
	}
}

// responseWriter records the status and, when asked, the response body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	if rw.body != nil && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) status() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// peekBody reads up to maxLoggedBody bytes and leaves r.Body whole for the
// handler.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(b), r.Body), r.Body}
	return b
}

func logCompleted(lg *slog.Logger, r *http.Request, rw *responseWriter, reqBody []byte, duration time.Duration) {
	status := rw.status()

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	case quietPaths[r.URL.Path]:
		level = slog.LevelDebug
	}

	route := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		route = rctx.RoutePattern()
	}

	attrs := []any{
		slog.Group("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"query", r.URL.RawQuery,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"organization_header", r.Header.Get("X-Organization-ID"),
		),
		slog.Group("response",
			"status_code", status,
			"size", rw.size,
		),
		"duration_ms", duration.Milliseconds(),
	}
	if rw.body != nil {
		attrs = append(attrs,
			"headers", filterSensitiveHeaders(r.Header),
			"request_body", filterSensitiveBody(reqBody),
			"response_body", filterSensitiveBody(rw.body.Bytes()),
		)
	}

	lg.Log(r.Context(), level, "request completed", attrs...)
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// filterSensitiveBody masks sensitive JSON fields. Non-JSON bodies that
// mention a sensitive field are dropped whole.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		if isSensitive(string(body)) {
			return "[FILTERED - Contains sensitive data]"
		}
		return string(body)
	}

	out, err := json.Marshal(filterSensitiveJSON(data))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(out)
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
				continue
			}
			out[key] = filterSensitiveJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = filterSensitiveJSON(item)
		}
		return out
	default:
		return v
	}
}
