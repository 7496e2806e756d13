package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/pulsechat/pulse-backend/internal/config"
	"github.com/pulsechat/pulse-backend/internal/handlers"
	"github.com/pulsechat/pulse-backend/internal/middleware"
)

func SetupRoutes(r *chi.Mux, cfg *config.Config) {
	requireAuth := middleware.RequireAuth(cfg.JWTSecret)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", handlers.Signup)
		r.With(middleware.LoginRateLimit).Post("/login", handlers.Login)
		// Logout only clears the cookie, so it works with or without a
		// valid session.
		r.Post("/logout", handlers.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", handlers.Me)
			r.Put("/profile", handlers.UpdateProfile)
		})
	})

	r.Route("/api/message", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/send", handlers.SendMessage)
		r.Get("/conversations", handlers.ListConversations)
		r.Get("/{otherUserID}", handlers.GetHistory)
	})

	// The websocket handshake authenticates via the session cookie itself.
	r.Get("/ws", handlers.WebSocket)
}
