package routes

import (
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/models"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(api fiber.Router, h *handlers.Handler) {
	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))

	users := admin.Group("/users")
	users.Post("", h.CreateUser)
	users.Get("", h.ListUsers)
	users.Put("/:userId/role", h.UpdateUserRole)
	users.Put("/:userId/status", h.UpdateUserStatus)
}
