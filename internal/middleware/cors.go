package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var localCors = cors.Handler(cors.Options{
	AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
	AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	AllowedHeaders:   []string{"Content-Type"},
	AllowCredentials: true,
	MaxAge:           300,
})

// CORS allows any origin. It is meant for local development against a separately served frontend.
func CORS(next http.Handler) http.Handler {
	return localCors(next)
}
