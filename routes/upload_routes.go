package routes

import (
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(api fiber.Router, h *handlers.Handler) {
	uploads := api.Group("/uploads", middleware.RequireAuth())
	uploads.Get("/signature", h.GenerateUploadSignature)
}
