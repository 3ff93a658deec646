package router

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/mailer"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/spot"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/view"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

type ctxKey int

const requestIDKey ctxKey = iota

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	if lrw.status == 0 {
		lrw.status = code
	}
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

func (lrw *loggingResponseWriter) statusCode() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

// RequestID returns the correlation id stored by RequestIDMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDMiddleware keeps an incoming X-Request-Id or assigns a new one.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		})
	}
}

// LoggingMiddleware logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			logger.Debugw("http request",
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", lrw.statusCode(),
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RecoverMiddleware turns a handler panic into a 500 and logs the stack.
func RecoverMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Errorw("handler panic",
						"request_id", RequestID(r.Context()),
						"path", r.URL.Path,
						"panic", fmt.Sprint(rec),
						"stack", string(debug.Stack()),
					)
					view.JSON(w, http.StatusInternalServerError, map[string]any{
						"message":    "Internal server error.",
						"statusCode": http.StatusInternalServerError,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// MetricsMiddleware counts requests by the matched mux pattern so path
// parameters and unknown paths do not explode label cardinality.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			defer func() {
				status := lrw.statusCode()
				rec := recover()
				if rec != nil {
					// RecoverMiddleware answers 500 once the panic is re-raised
					status = http.StatusInternalServerError
				}
				route := r.Pattern
				if route == "" {
					route = "unmatched"
				}
				metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
				if rec != nil {
					panic(rec)
				}
			}()
			next.ServeHTTP(lrw, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// csp is the Content-Security-Policy value; empty means 'self' only.
func SecurityHeadersMiddleware(csp string) func(http.Handler) http.Handler {
	if csp == "" {
		csp = config.CSP{}.Header()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", csp)
			}
			// HSTS only over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Options are the dependencies RegisterRoutes wires into the handlers.
type Options struct {
	DB     *sqlx.DB
	Mailer mailer.Sender
	Config *config.Config
}

// signingSecret returns the configured JWT secret or a random one.
func signingSecret(cfg *config.Config, logger *zap.SugaredLogger) ([]byte, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}
	logger.Warnw("JWT_SECRET_KEY not set; using a random key, tokens will not survive a restart")
	return token.RandomSecret()
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	sender := opts.Mailer
	if sender == nil {
		sender = mailer.NewLogSender(logger)
	}
	secret, err := signingSecret(cfg, logger)
	if err != nil {
		return nil, err
	}
	renderer, err := view.New(logger)
	if err != nil {
		return nil, err
	}

	users := userrepo.NewUserRepo(opts.DB)
	tokenSvc := token.NewService(secret, cfg.TokenTTL, users, logger)
	userSvc := user.NewUserService(opts.DB, users, sender, tokenSvc, logger)
	spotSvc := spot.NewService(opts.DB, tokenSvc, spot.AdminAuth{Key: cfg.AdminKey, KeyHash: cfg.AdminKeyHash}, logger)
	if !cfg.AdminConfigured() {
		logger.Warnw("no ADMIN_KEY or ADMIN_KEY_HASH set; POST /reset will always be rejected")
	}

	userHandler := user.NewHandler(userSvc, logger)
	tokenHandler := token.NewHandler(tokenSvc, logger)
	spotHandler := spot.NewHandler(spotSvc, renderer, cfg.SEO, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// sign-in
	mux.HandleFunc("POST /postEmail", userHandler.PostEmail)
	mux.HandleFunc("POST /postCode", userHandler.PostCode)
	mux.HandleFunc("POST /authMe", tokenHandler.AuthMe)

	// voting and admin
	mux.HandleFunc("GET /{$}", spotHandler.Home)
	mux.HandleFunc("POST /vote", spotHandler.Vote)
	mux.HandleFunc("GET /logs", spotHandler.Logs)
	mux.HandleFunc("POST /reset", spotHandler.Reset)

	mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))

	handler := SecurityHeadersMiddleware(cfg.CSP.Header())(mux)
	handler = MetricsMiddleware()(handler)
	handler = RecoverMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler, nil
}
