package handlers

import (
	"strings"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// CreateUser lets an admin add a user with any role.
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	role, _ := models.ParseRole(req.Role)

	user, err := h.createUser(c.UserContext(), req.FullName, req.Email, req.Password, role)
	if err != nil {
		return err
	}
	log.Infow("✅ user created by admin", "user_id", user.ID, "role", user.Role)
	return c.Status(fiber.StatusCreated).JSON(dto.OK("User created", dto.ToUserResponse(*user)))
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	filter := repository.UserFilter{Search: strings.TrimSpace(c.Query("q"))}
	if r := c.Query("role"); r != "" {
		role, ok := models.ParseRole(r)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid role")
		}
		filter.Role = role
	}

	p := page(c)
	users, total, err := h.users.List(c.UserContext(), filter, p)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.NewPage(dto.ToUserResponses(users), total, p.Number, p.Size)))
}

func (h *Handler) UpdateUserRole(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	role, _ := models.ParseRole(req.Role)

	user, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	user.Role = role
	if err := h.users.Save(c.UserContext(), user); err != nil {
		return err
	}
	return c.JSON(dto.OK("Role updated", dto.ToUserResponse(*user)))
}

// UpdateUserStatus activates or deactivates an account. Deactivated users
// are treated as anonymous on their next request.
func (h *Handler) UpdateUserStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	ci, err := caller(c)
	if err != nil {
		return err
	}
	if ci.ID == id && !*req.IsActive {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "You cannot deactivate your own account")
	}

	user, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	user.IsActive = *req.IsActive
	if err := h.users.Save(c.UserContext(), user); err != nil {
		return err
	}
	return c.JSON(dto.OK("Status updated", dto.ToUserResponse(*user)))
}
