package middleware

import (
	"net/http"

	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"
)

// WithCORS adds CORS middleware.
func WithCORS() func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		middleware := cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: connectcors.AllowedMethods(),
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{"*"},
		})
		return middleware.Handler(h)
	}
}
