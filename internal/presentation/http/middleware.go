package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/asif4762/bookbarn-final-server/internal/pkg/logging"
)

// Metrics carries the HTTP instruments, created and registered in main.
type Metrics struct {
	Requests *prometheus.CounterVec   // http_requests_total{method,route,status}
	Duration *prometheus.HistogramVec // http_request_duration_seconds{method,route,status}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// routeTemplate returns the matched mux route pattern so metric labels stay
// low-cardinality.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return "unknown"
}

// traceMiddleware starts a server span per request (W3C propagation) and
// injects a request-scoped logger carrying the trace identifiers.
func (h *Handler) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("bookbarn.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		template := routeTemplate(r)
		ctx, span := tracer.Start(parentCtx,
			r.Method+" "+template,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		reqLogger := h.log.With(
			zap.String("method", r.Method),
			zap.String("route", template),
		)
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			reqLogger = reqLogger.With(
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		ctx = logging.ContextWithLogger(ctx, reqLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		if h.metrics == nil {
			return
		}
		labels := []string{r.Method, routeTemplate(r), strconv.Itoa(lrw.status)}
		if h.metrics.Requests != nil {
			h.metrics.Requests.WithLabelValues(labels...).Inc()
		}
		if h.metrics.Duration != nil {
			h.metrics.Duration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		}
	})
}

// accessLogMiddleware writes one access log line after the handler completes.
func (h *Handler) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logging.FromContext(r.Context()).Info("http_access",
			zap.String("method", r.Method),
			zap.String("route", routeTemplate(r)),
			zap.String("path", r.URL.Path),
			zap.Int("status", lrw.status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}
