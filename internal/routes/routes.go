package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/handlers"
	"ASTROTRACKER_BACK-END/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes
type Handlers struct {
	Auth           *handlers.AuthHandler
	ForgotPassword *handlers.ForgotPasswordHandler
	Apod           *handlers.ApodHandler
	Health         *handlers.HealthHandler
}

// SetupRoutes configures all application routes on mux
func SetupRoutes(mux *http.ServeMux, h Handlers, jwtCfg *config.JWTConfig, users middleware.UserLookup) {
	protected := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.AuthMiddleware(next, jwtCfg, users)
	}

	// Health check routes
	mux.HandleFunc("GET /health", h.Health.HealthCheck)
	mux.HandleFunc("GET /livez", h.Health.LivenessCheck)
	mux.HandleFunc("GET /api/test/health", h.Health.TestHealth)
	mux.HandleFunc("GET /api/test/ping", h.Health.Ping)

	// Authentication routes
	mux.HandleFunc("/api/auth/register", h.Auth.Register)
	mux.HandleFunc("/api/auth/login", h.Auth.Login)
	mux.HandleFunc("/api/auth/validate", h.Auth.ValidateToken)
	mux.HandleFunc("/api/auth/forgot-password", h.ForgotPassword.ForgotPassword)
	mux.HandleFunc("/api/auth/reset-password", h.ForgotPassword.ResetPassword)
	mux.HandleFunc("/api/auth/validate-reset-token/{token}", h.ForgotPassword.ValidateResetToken)
	mux.HandleFunc("GET /api/auth/profile", protected(h.Auth.GetProfile))
	mux.HandleFunc("PUT /api/auth/profile", protected(h.Auth.UpdateProfile))
	mux.HandleFunc("/api/auth/profile-picture", protected(h.Auth.UpdateProfilePicture))
	mux.HandleFunc("/api/auth/change-password", protected(h.Auth.ChangePassword))
	mux.HandleFunc("/api/auth/account", protected(h.Auth.DeleteAccount))

	// NASA routes
	mux.HandleFunc("/api/nasa/apod", protected(h.Apod.GetApod))
	mux.HandleFunc("/api/nasa/apod/random", protected(h.Apod.GetRandomApod))
	mux.HandleFunc("/api/nasa/apod/range", protected(h.Apod.GetApodRange))
	mux.HandleFunc("/api/nasa/apod/stored", protected(h.Apod.GetStoredApods))
	mux.HandleFunc("/api/nasa/apod/trends", protected(h.Apod.GetTrends))
	mux.HandleFunc("/api/nasa/apod/sync", protected(h.Apod.SyncApod))
	mux.HandleFunc("/api/nasa/apod/calendar", protected(h.Apod.GetCalendar))
	mux.HandleFunc("/api/nasa/apod/{id}/rating", protected(h.Apod.UpdateRating))
	mux.HandleFunc("/api/nasa/apod/{id}/favorite", protected(h.Apod.ToggleFavorite))

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Root route
	mux.HandleFunc("/{$}", rootHandler)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("AstroTracker backend is running."))
}
