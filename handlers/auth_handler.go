package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/notifications"
	"github.com/anjiri1684/classroom/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *Handler) authResponse(u *models.User) (dto.AuthResponse, error) {
	token, err := h.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokens.TTL() / time.Second),
		User:      dto.ToUserResponse(*u),
	}, nil
}

func (h *Handler) createUser(ctx context.Context, fullName, email, password string, role models.Role) (*models.User, error) {
	u := &models.User{
		FullName: strings.TrimSpace(fullName),
		Email:    normalizeEmail(email),
		Role:     role,
		IsActive: true,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	if err := h.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Register signs up a student and logs them in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	user, err := h.createUser(c.UserContext(), req.FullName, req.Email, req.Password, models.RoleStudent)
	if err != nil {
		return err
	}
	h.outbox.Queue(notifications.Message{
		ToName:  user.FullName,
		ToEmail: user.Email,
		Subject: "Welcome!",
		Text:    "Thank you for registering.",
		HTML:    "<h1>Welcome!</h1><p>Thank you for registering.</p>",
	})

	resp, err := h.authResponse(user)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Registration successful", resp))
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.GetByEmail(c.UserContext(), normalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if err := user.CheckPassword(req.Password); err != nil {
		return ErrInvalidCredentials
	}
	if !user.IsActive {
		return ErrAccountDisabled
	}

	resp, err := h.authResponse(user)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Login successful", resp))
}

// Me returns the caller's own profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.UserContext(), ci.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.ToUserResponse(*user)))
}
