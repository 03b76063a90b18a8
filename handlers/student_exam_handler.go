package handlers

import (
	"github.com/anjiri1684/classroom/dto"
	"github.com/gofiber/fiber/v2"
)

// StartExam opens the caller's next attempt.
func (h *Handler) StartExam(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "examId")
	if err != nil {
		return err
	}
	attempt, err := h.exams.StartExam(c.UserContext(), id, ci.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Exam started", dto.ToStudentExamResponse(*attempt)))
}

// ExamResults lists the caller's graded attempts at an exam.
func (h *Handler) ExamResults(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "examId")
	if err != nil {
		return err
	}
	attempts, err := h.exams.GetExamResults(c.UserContext(), ci.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.ToStudentExamResponses(attempts)))
}

func (h *Handler) GetAttempt(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "attemptId")
	if err != nil {
		return err
	}
	attempt, err := h.exams.GetAttempt(c.UserContext(), id, ci.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.ToStudentExamResponse(*attempt)))
}

func (h *Handler) AttemptQuestions(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "attemptId")
	if err != nil {
		return err
	}
	questions, err := h.exams.GetShuffledQuestions(c.UserContext(), id, ci.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", questions))
}

func (h *Handler) SubmitAnswer(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "attemptId")
	if err != nil {
		return err
	}
	var req dto.SubmitAnswerRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.exams.SubmitAnswer(c.UserContext(), id, ci.ID, req.QuestionID, req.AnswerIDs); err != nil {
		return err
	}
	return c.JSON(dto.OK("Answer saved", nil))
}

func (h *Handler) SubmitExam(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "attemptId")
	if err != nil {
		return err
	}
	attempt, err := h.exams.SubmitExam(c.UserContext(), id, ci.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Exam submitted", dto.ToStudentExamResponse(*attempt)))
}

func (h *Handler) AttemptCertificate(c *fiber.Ctx) error {
	if h.certificates == nil {
		return ErrNotFound
	}
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "attemptId")
	if err != nil {
		return err
	}
	cert, err := h.certificates.Get(c.UserContext(), id, ci.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.ToCertificateResponse(*cert)))
}
