package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"BOOKWORM_BACK-END/internal/handlers"
	"BOOKWORM_BACK-END/internal/middleware"
)

// SetupRoutes configures all application routes on a fresh mux
func SetupRoutes(
	gate *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	bookHandler *handlers.BookHandler,
	healthHandler *handlers.HealthHandler,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check routes
	mux.HandleFunc("GET /healthz", healthHandler.HealthCheck)
	mux.HandleFunc("GET /livez", healthHandler.LivenessCheck)
	mux.HandleFunc("GET /readyz", healthHandler.ReadinessCheck)

	// Authentication routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/auth/profile", gate.RequireAuth(authHandler.Profile))

	// Book routes, all behind the auth gate
	mux.HandleFunc("POST /api/books", gate.RequireAuth(bookHandler.Create))
	mux.HandleFunc("GET /api/books", gate.RequireAuth(bookHandler.List))
	mux.HandleFunc("GET /api/books/user", gate.RequireAuth(bookHandler.ListMine))
	mux.HandleFunc("DELETE /api/books/{id}", gate.RequireAuth(bookHandler.Delete))

	// Swagger UI
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Root route
	mux.HandleFunc("GET /{$}", rootHandler)

	return mux
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Bookworm backend is running."))
}
