// Package server assembles the HTTP surface of the need2reef API.
package server

import (
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/kidtango/need2reefbackend/internal/auth"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Options configures the router.
type Options struct {
	// FrontendURL is the only origin allowed to make credentialed
	// cross-origin requests. CORS is disabled when empty.
	FrontendURL string
	// Playground serves the GraphQL playground at "/".
	Playground bool
}

// NewRouter mounts api at /graphql behind the auth middleware, the
// playground at / and a health check at /health.
func NewRouter(api http.Handler, verifier auth.Verifier, opts Options, logger logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if opts.FrontendURL != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{opts.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", healthHandler)
	r.With(auth.Middleware(verifier, logger)).Handle("/graphql", api)
	if opts.Playground {
		r.Handle("/", playground.Handler("need2reef", "/graphql"))
	}
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","version":"` + Version + `"}`))
}

// requestLogger logs one line per request.
func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.WithFields(logrus.Fields{
					"method":    r.Method,
					"path":      r.URL.Path,
					"status":    ww.Status(),
					"bytes":     ww.BytesWritten(),
					"duration":  time.Since(start).String(),
					"requestId": middleware.GetReqID(r.Context()),
				}).Info("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
