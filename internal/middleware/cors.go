package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
)

// NewCORS allows the SPA origin to call the API with its session cookie when AllowCredentials is set.
func NewCORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
