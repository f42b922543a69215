package main

import (
	"net/http"

	"github.com/dmoretti/agentq-api/internal/api"
	apiMiddleware "github.com/dmoretti/agentq-api/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.queue, app.watcher, app.streamer, app.logger)
	conversationHandler := api.NewConversationHandler(app.conversationStore, app.messageStore, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.config.Auth.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Queued execution
			r.Post("/tasks", taskHandler.SubmitTask)
			r.Get("/tasks/{id}", taskHandler.GetTaskStatus)
			r.Get("/tasks/{id}/stream", taskHandler.StreamTaskUpdates)

			// Live execution
			r.Post("/tasks/stream", taskHandler.ExecuteTaskStream)

			// Conversation history
			r.Get("/conversations/{id}/messages", conversationHandler.ListMessages)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
