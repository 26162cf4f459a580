package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the dashboard API to be called from the listed origins.
// A "*" entry opens it to any origin; credentials are then never allowed.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: !anyOrigin(allowedOrigins),
		MaxAge:           300,
	})

	return c.Handler
}

func anyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
