package routes

import (
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(api fiber.Router, h *handlers.Handler) {
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/me", middleware.RequireAuth(), h.Me)
}
