package routes

import (
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/models"
	"github.com/gofiber/fiber/v2"
)

func CatalogRoutes(api fiber.Router, h *handlers.Handler) {
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	teaching := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)

	subjects := api.Group("/subjects", middleware.RequireAuth())
	subjects.Get("", h.ListSubjects)
	subjects.Post("", adminOnly, h.CreateSubject)

	grades := api.Group("/grades", middleware.RequireAuth())
	grades.Get("", h.ListGrades)
	grades.Post("", adminOnly, h.CreateGrade)

	courses := api.Group("/courses", middleware.RequireAuth())
	courses.Get("", h.ListCourses)
	courses.Post("", teaching, h.CreateCourse)
	courses.Get("/:courseId", h.GetCourse)
	courses.Post("/:courseId/enroll", middleware.RequireRole(models.RoleStudent), h.Enroll)
	courses.Get("/:courseId/enrollments", teaching, h.ListEnrollments)
}
