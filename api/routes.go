package main

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
)

// composeRoutes builds the handler tree. Background work started for it stops
// when ctx is done.
func composeRoutes(ctx context.Context, app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /api/create-task", app.createTaskHandler)
	mux.HandleFunc("POST /api/tasks", app.createTaskHandler)
	mux.HandleFunc("GET /api/users/{phone}", app.getUserByPhoneHandler)
	mux.HandleFunc("POST /api/users", app.upsertUserHandler)

	mux.HandleFunc("GET /v1/users", app.getUserHandler)
	mux.HandleFunc("POST /v1/users", app.createUserHandler)
	mux.HandleFunc("PATCH /v1/users/{id}", app.updateUserHandler)

	mux.HandleFunc("GET /v1/tasks", app.getTasksHandler)
	mux.HandleFunc("POST /v1/tasks", app.insertTaskHandler)
	mux.HandleFunc("PATCH /v1/tasks/{id}", app.updateTaskHandler)
	mux.HandleFunc("DELETE /v1/tasks/{id}", app.deleteTaskHandler)

	var handler http.Handler = mux
	handler = cors.Handler(cors.Options{
		AllowedOrigins: app.config.CORS.TrustedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(handler)
	if app.config.Limiter.Enabled {
		handler = app.rateLimit(ctx, handler)
	}
	return app.logRequests(handler)
}
