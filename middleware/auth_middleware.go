package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// IdentityLocal is the fiber locals key of the caller. It is a string so the
// value survives a websocket upgrade.
const IdentityLocal = "identity"

// CallerIdentity is the authenticated user behind a request.
type CallerIdentity struct {
	ID    uint
	Email string
	Role  models.Role
}

func (ci CallerIdentity) Actor() services.Actor {
	return services.Actor{ID: ci.ID, Role: ci.Role}
}

// IdentityResolver turns an Authorization header into a CallerIdentity.
type IdentityResolver struct {
	tokens *services.TokenService
	users  repository.UserRepository
}

func NewIdentityResolver(tokens *services.TokenService, users repository.UserRepository) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users}
}

// Resolve never fails loudly: any problem with the header, the token or the
// user row yields an anonymous caller. Id, email and role come from the
// stored user, so role changes apply to tokens issued before them.
func (r *IdentityResolver) Resolve(ctx context.Context, header string) (*CallerIdentity, bool) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, false
	}
	claims, ok := r.tokens.Parse(token)
	if !ok {
		log.Debug("rejected bearer token")
		return nil, false
	}
	return r.ResolveClaims(ctx, claims)
}

// ResolveClaims loads the user behind already verified claims.
func (r *IdentityResolver) ResolveClaims(ctx context.Context, claims *services.Claims) (*CallerIdentity, bool) {
	if claims == nil || claims.ExpiresAt == nil {
		return nil, false
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		log.Debugw("token subject is not a user id", "sub", claims.Subject)
		return nil, false
	}

	user, err := r.users.GetByID(ctx, uint(id))
	if err != nil {
		log.Debugw("token user not loaded", "user_id", id, "error", err)
		return nil, false
	}
	if !user.IsActive {
		return nil, false
	}
	return &CallerIdentity{ID: user.ID, Email: user.Email, Role: user.Role}, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}

// Identity resolves the caller of every request. Anonymous requests go
// through untouched; RequireAuth and RequireRole decide what they may reach.
func Identity(r *IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ci, ok := r.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)); ok {
			c.Locals(IdentityLocal, ci)
		}
		return c.Next()
	}
}

// CurrentIdentity returns the caller attached by Identity.
func CurrentIdentity(c *fiber.Ctx) (*CallerIdentity, bool) {
	ci, ok := c.Locals(IdentityLocal).(*CallerIdentity)
	return ci, ok && ci != nil
}

// SetIdentity attaches ci to the request.
func SetIdentity(c *fiber.Ctx, ci *CallerIdentity) {
	c.Locals(IdentityLocal, ci)
}

func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentIdentity(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Authentication required", nil))
		}
		return c.Next()
	}
}

func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ci, ok := CurrentIdentity(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Authentication required", nil))
		}
		for _, role := range roles {
			if ci.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.Fail("You do not have permission to perform this action", nil))
	}
}
