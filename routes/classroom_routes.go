package routes

import (
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/models"
	"github.com/gofiber/fiber/v2"
)

func ClassroomRoutes(api fiber.Router, h *handlers.Handler) {
	teaching := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)

	classrooms := api.Group("/classrooms", middleware.RequireAuth())
	classrooms.Get("", h.ListClassrooms)
	classrooms.Post("", teaching, h.CreateClassroom)
	classrooms.Post("/join", middleware.RequireRole(models.RoleStudent), h.JoinClassroom)
	classrooms.Get("/:classroomId", h.GetClassroom)
	classrooms.Get("/:classroomId/students", h.ListClassroomStudents)
	classrooms.Post("/:classroomId/students", teaching, h.AddClassroomStudent)
}
