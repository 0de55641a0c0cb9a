// CLAUDE:SUMMARY Endpoint middlewares shared by HTTP and MCP: endpoint naming, request IDs, structured logging, Prometheus timing.
package kit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Endpoint is one transport-agnostic action. HTTP handlers and MCP tools
// decode their input into a request value and call the same Endpoint.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Middleware decorates an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes mws so the first one runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(ep Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			ep = mws[i](ep)
		}
		return ep
	}
}

var endpointSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "judgefinder",
	Subsystem: "endpoint",
	Name:      "duration_seconds",
	Help:      "Endpoint latency by endpoint, transport and outcome",
	Buckets:   prometheus.DefBuckets,
}, []string{"endpoint", "transport", "status"})

// Named tags the context with the endpoint name for the middlewares below it.
func Named(name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			return next(WithEndpoint(ctx, name), request)
		}
	}
}

// RequestID assigns a fresh UUID unless the transport already set one.
func RequestID() Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			if GetRequestID(ctx) == "" {
				ctx = WithRequestID(ctx, uuid.NewString())
			}
			return next(ctx, request)
		}
	}
}

// Logging logs every call at debug level and failures at warn.
func Logging(logger *slog.Logger) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			attrs := []any{
				"endpoint", GetEndpoint(ctx),
				"transport", GetTransport(ctx),
				"request_id", GetRequestID(ctx),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.Warn("endpoint failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("endpoint ok", attrs...)
			}
			return resp, err
		}
	}
}

// Instrument records endpoint latency.
func Instrument() Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			status := "ok"
			if err != nil {
				status = "error"
			}
			endpointSeconds.WithLabelValues(GetEndpoint(ctx), GetTransport(ctx), status).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}
