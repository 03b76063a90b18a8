package handlers

import (
	"strings"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateExam(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateExamRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	exam, err := h.exams.CreateExam(c.UserContext(), dto.ExamFromRequest(req, ci.ID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Exam created", dto.ToExamResponse(*exam)))
}

func (h *Handler) UpdateExam(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "examId")
	if err != nil {
		return err
	}
	var req dto.CreateExamRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	exam, err := h.exams.UpdateExam(c.UserContext(), ci.Actor(), id, dto.ExamFromRequest(req, ci.ID))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Exam updated", dto.ToExamResponse(*exam)))
}

func (h *Handler) ListExams(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	filter := repository.ExamFilter{
		TeacherID: queryID(c, "teacherId"),
		CourseID:  queryID(c, "courseId"),
	}
	if s := c.Query("status"); s != "" {
		filter.Status = models.ExamStatus(strings.ToUpper(s))
	}

	p := page(c)
	exams, total, err := h.exams.ListExams(c.UserContext(), ci.Actor(), filter, p)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.NewPage(dto.ToExamResponses(exams), total, p.Number, p.Size)))
}

// GetExam shows students the exam summary and its owner the full question
// set with correct answers.
func (h *Handler) GetExam(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "examId")
	if err != nil {
		return err
	}
	exam, err := h.exams.GetExam(c.UserContext(), ci.Actor(), id)
	if err != nil {
		return err
	}
	if ci.Role == models.RoleStudent {
		return c.JSON(dto.OK("", dto.ToExamResponse(*exam)))
	}
	return c.JSON(dto.OK("", dto.ToExamDetailResponse(*exam)))
}

func (h *Handler) AddQuestion(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "examId")
	if err != nil {
		return err
	}
	var req dto.QuestionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	q, err := h.exams.AddQuestion(c.UserContext(), ci.Actor(), id, dto.QuestionFromRequest(req, id))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Question added", dto.ToQuestionResponse(*q)))
}

func (h *Handler) PublishExam(c *fiber.Ctx) error {
	return h.changeExamStatus(c, "Exam published", h.exams.Publish)
}

func (h *Handler) CloseExam(c *fiber.Ctx) error {
	return h.changeExamStatus(c, "Exam closed", h.exams.Close)
}

func (h *Handler) changeExamStatus(c *fiber.Ctx, message string, change examTransition) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "examId")
	if err != nil {
		return err
	}
	exam, err := change(c.UserContext(), ci.Actor(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(message, dto.ToExamResponse(*exam)))
}

func (h *Handler) ListExamAttempts(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "examId")
	if err != nil {
		return err
	}
	attempts, err := h.exams.ListAttempts(c.UserContext(), ci.Actor(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.ToStudentExamResponses(attempts)))
}
