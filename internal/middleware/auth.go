package middleware

import (
	"net/http"

	"github.com/2beens/cardioprogress/internal/telemetry/tracing"
	"github.com/2beens/cardioprogress/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const AppSecretHeader = "X-Cardio-Secret"

// AuthMiddlewareHandler guards mutating requests with the app secret. Reads
// stay open.
type AuthMiddlewareHandler struct {
	appSecretHash string
	allowedPaths  map[string]bool
}

// NewAuthMiddlewareHandler takes the bcrypt hash of the app secret.
func NewAuthMiddlewareHandler(appSecretHash string) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		appSecretHash: appSecretHash,
		allowedPaths: map[string]bool{
			// MCP clients POST tool calls, all of them are reads
			"/mcp": true,
		},
	}
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if isReadMethod(r.Method) || h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			secret := r.Header.Get(AppSecretHeader)
			if secret == "" {
				log.Tracef("[missing secret] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-app-secret")
				return
			}

			if h.appSecretHash == "" || !pkg.SecretMatchesHash(secret, h.appSecretHash) {
				reqIp, _ := pkg.ReadUserIP(r)
				log.Warnf("[invalid secret] [auth middleware] unauthorized %s %s from %s", r.Method, r.URL.Path, reqIp)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-app-secret")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
