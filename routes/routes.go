package routes

import (
	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/services"
	"github.com/anjiri1684/classroom/websocket"
	"github.com/gofiber/fiber/v2"
)

// Setup mounts every route of the API on app.
func Setup(app *fiber.App, h *handlers.Handler, tokens *services.TokenService, resolver *middleware.IdentityResolver, hub *websocket.Hub) {
	app.Use(middleware.Identity(resolver))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.OK("ok", nil))
	})
	app.Get("/ws", websocket.Upgrade(tokens, resolver), hub.Handler())

	api := app.Group("/api/v1")
	AuthRoutes(api, h)
	AdminRoutes(api, h)
	CatalogRoutes(api, h)
	ClassroomRoutes(api, h)
	ExamRoutes(api, h)
	UploadRoutes(api, h)
}
