package handlers

import (
	"context"
	"strconv"

	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/notifications"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/services"
	"github.com/anjiri1684/classroom/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UploadSigner signs direct browser uploads.
type UploadSigner interface {
	SignUpload(folder string) (services.UploadSignature, error)
}

// Deps is everything the handlers need. Certificates and Uploads may be nil
// when cloudinary is not configured.
type Deps struct {
	DB           *gorm.DB
	Users        repository.UserRepository
	Tokens       *services.TokenService
	Exams        *services.ExamService
	Certificates *services.CertificateService
	Uploads      UploadSigner
	Mailer       notifications.Mailer
	Validator    *utils.Validator
}

type Handler struct {
	db           *gorm.DB
	users        repository.UserRepository
	tokens       *services.TokenService
	exams        *services.ExamService
	certificates *services.CertificateService
	uploads      UploadSigner
	outbox       *notifications.Outbox
	validator    *utils.Validator
}

func New(d Deps) *Handler {
	if d.Validator == nil {
		d.Validator = utils.NewValidator()
	}
	if d.Mailer == nil {
		d.Mailer = &notifications.LogMailer{}
	}
	return &Handler{
		db:           d.DB,
		users:        d.Users,
		tokens:       d.Tokens,
		exams:        d.Exams,
		certificates: d.Certificates,
		uploads:      d.Uploads,
		outbox:       notifications.NewOutbox(d.Mailer),
		validator:    d.Validator,
	}
}

// Wait blocks until mail queued by handlers has been sent.
func (h *Handler) Wait() { h.outbox.Wait() }

func (h *Handler) bind(c *fiber.Ctx, out interface{}) error {
	return h.validator.BindAndValidate(c, out)
}

func caller(c *fiber.Ctx) (*middleware.CallerIdentity, error) {
	ci, ok := middleware.CurrentIdentity(c)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return ci, nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// queryID reads an optional id filter. Anything that is not a positive
// number means no filter.
func queryID(c *fiber.Ctx, name string) uint {
	if id := c.QueryInt(name, 0); id > 0 {
		return uint(id)
	}
	return 0
}

// page reads the zero-based page and size query parameters.
func page(c *fiber.Ctx) repository.Page {
	number := c.QueryInt("page", 0)
	if number < 0 {
		number = 0
	}
	size := c.QueryInt("size", defaultPageSize)
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return repository.Page{Number: number, Size: size}
}

type examTransition func(ctx context.Context, actor services.Actor, examID uint) (*models.Exam, error)
