package handlers

import (
	"strconv"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/monitoring"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/services"
	"github.com/anjiri1684/classroom/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account deactivated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyEnrolled    = errors.New("student already enrolled")
	ErrUploadsDisabled    = errors.New("uploads are not configured")
)

// statusOf maps domain errors to HTTP status codes. The first match wins.
var statusOf = []struct {
	err  error
	code int
}{
	{ErrUnauthenticated, fiber.StatusUnauthorized},
	{ErrInvalidCredentials, fiber.StatusUnauthorized},

	{ErrForbidden, fiber.StatusForbidden},
	{ErrAccountDisabled, fiber.StatusForbidden},
	{services.ErrNotExamOwner, fiber.StatusForbidden},
	{services.ErrNotAttemptOwner, fiber.StatusForbidden},

	{ErrNotFound, fiber.StatusNotFound},
	{services.ErrExamNotFound, fiber.StatusNotFound},
	{services.ErrAttemptNotFound, fiber.StatusNotFound},
	{services.ErrCertificateNotFound, fiber.StatusNotFound},
	{repository.ErrNotFound, fiber.StatusNotFound},

	{ErrEmailTaken, fiber.StatusConflict},
	{ErrAlreadyEnrolled, fiber.StatusConflict},
	{services.ErrExamNotPublished, fiber.StatusConflict},
	{services.ErrAttemptLimitReached, fiber.StatusConflict},
	{services.ErrAttemptClosed, fiber.StatusConflict},
	{services.ErrExamLocked, fiber.StatusConflict},
	{services.ErrExamTransition, fiber.StatusConflict},
	{repository.ErrDuplicate, fiber.StatusConflict},

	{services.ErrAttemptExpired, fiber.StatusUnprocessableEntity},
	{services.ErrExamEmpty, fiber.StatusUnprocessableEntity},
	{services.ErrInvalidQuestion, fiber.StatusUnprocessableEntity},
	{services.ErrQuestionNotInExam, fiber.StatusUnprocessableEntity},
	{services.ErrAnswerNotInQuestion, fiber.StatusUnprocessableEntity},
	{services.ErrNotPassed, fiber.StatusUnprocessableEntity},

	{ErrUploadsDisabled, fiber.StatusServiceUnavailable},
}

// NewErrorHandler renders every error returned by a handler as an envelope.
// Unknown errors become a 500 and are reported.
func NewErrorHandler(v *utils.Validator, reporter monitoring.Reporter) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fields, ok := v.FieldErrors(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Validation failed", fields))
		}
		if errors.Is(err, utils.ErrMalformedBody) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Cannot parse JSON", nil))
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.Fail(fe.Message, nil))
		}

		for _, m := range statusOf {
			if errors.Is(err, m.err) {
				return c.Status(m.code).JSON(dto.Fail(m.err.Error(), nil))
			}
		}

		var person *monitoring.Person
		if ci, ok := middleware.CurrentIdentity(c); ok {
			person = &monitoring.Person{ID: strconv.FormatUint(uint64(ci.ID), 10), Email: ci.Email}
		}
		log.Errorw("🔥 request failed", "method", c.Method(), "path", c.Path(), "error", err)
		reporter.Error(err, map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		}, person)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Something went wrong", nil))
	}
}
