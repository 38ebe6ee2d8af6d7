package mid

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "powledger",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of handled requests by method and status code.",
	}, []string{"method", "code"})

	requestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "powledger",
		Subsystem: "http",
		Name:      "errors_total",
		Help:      "Count of requests that returned an error to the middleware.",
	})

	requestPanics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "powledger",
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Count of requests that panicked.",
	})
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Errors are turned into a response further up the chain so
			// the status code isn't known yet.
			code := "error"
			switch {
			case err != nil:
				requestErrors.Inc()
			default:
				code = "none"
				if v, verr := web.GetValues(ctx); verr == nil && v.StatusCode != 0 {
					code = strconv.Itoa(v.StatusCode)
				}
			}
			requests.WithLabelValues(r.Method, code).Inc()

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
