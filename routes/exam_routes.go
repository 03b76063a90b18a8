package routes

import (
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/models"
	"github.com/gofiber/fiber/v2"
)

func ExamRoutes(api fiber.Router, h *handlers.Handler) {
	teaching := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)
	student := middleware.RequireRole(models.RoleStudent)

	exams := api.Group("/exams", middleware.RequireAuth())
	exams.Get("", h.ListExams)
	exams.Post("", teaching, h.CreateExam)
	exams.Get("/:examId", h.GetExam)
	exams.Put("/:examId", teaching, h.UpdateExam)
	exams.Post("/:examId/questions", teaching, h.AddQuestion)
	exams.Post("/:examId/publish", teaching, h.PublishExam)
	exams.Post("/:examId/close", teaching, h.CloseExam)
	exams.Get("/:examId/attempts", teaching, h.ListExamAttempts)
	exams.Post("/:examId/start", student, h.StartExam)
	exams.Get("/:examId/results", student, h.ExamResults)

	attempts := api.Group("/student-exams", student)
	attempts.Get("/:attemptId", h.GetAttempt)
	attempts.Get("/:attemptId/questions", h.AttemptQuestions)
	attempts.Post("/:attemptId/answers", h.SubmitAnswer)
	attempts.Post("/:attemptId/submit", h.SubmitExam)
	attempts.Get("/:attemptId/certificate", h.AttemptCertificate)
}
