package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/cardioprogress/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const unnamedRoute = "unnamed"

// routeName is the name of the matched mux route, so a panic in any
// /cardio handler can be told apart from one in sync or mcp.
func routeName(req *http.Request) string {
	route := mux.CurrentRoute(req)
	if route == nil || route.GetName() == "" {
		return unnamedRoute
	}
	return route.GetName()
}

func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"route":  routeName(req),
						"method": req.Method,
						"path":   req.URL.Path,
					}).Errorf("cardio http: recovered panic: %v\n%s", r, debug.Stack())
					if metricsManager != nil {
						metricsManager.CounterHandleRequestPanic.Inc()
					}
					http.Error(respWriter, "internal error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}
