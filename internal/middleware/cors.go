package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the React front end and admin dashboard origins to call the
// API with credentials and the bearer token header.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Total-Pages", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
