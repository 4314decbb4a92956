package httpapi

import (
	"net/http"

	"github.com/andrei73/pushup-counter/internal/platform/logging"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	InternalJobToken   string
	ElevatedRoles      []string
	RateLimit          RateLimitConfig
	// Metrics and MetricsHandler are optional; /metrics is only served when MetricsHandler is set.
	Metrics        HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsHandler)
	registerAuthorizedRoutes(mux, handler, verifier, cfg.ElevatedRoles)
	registerInternalJobRoutes(mux, handler, cfg.InternalJobToken)

	var limiter *RateLimiter
	if cfg.RateLimit.Enabled() {
		limiter = NewRateLimiter(cfg.RateLimit)
	}

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, RateLimit(limiter, recoverPanic(logger, Metrics(cfg.Metrics, mux))))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
