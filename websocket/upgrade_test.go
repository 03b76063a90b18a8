package websocket

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/services"
	"github.com/anjiri1684/classroom/testutil"
	"github.com/gofiber/fiber/v2"
)

func TestUpgradeHandshake(t *testing.T) {
	db := testutil.OpenDB(t)
	student := testutil.CreateUser(t, db, "Arnold", "arnold@school.test", models.RoleStudent)
	retired := testutil.CreateUser(t, db, "Janet", "janet@school.test", models.RoleStudent)
	if err := db.Model(retired).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	tokens := services.NewTokenService("ws-test-secret", time.Hour)
	resolver := middleware.NewIdentityResolver(tokens, repository.NewUserRepository(db))

	app := fiber.New()
	app.Use(middleware.Identity(resolver))
	app.Get("/ws", Upgrade(tokens, resolver), func(c *fiber.Ctx) error {
		ci, _ := middleware.CurrentIdentity(c)
		return c.SendString(strconv.FormatUint(uint64(ci.ID), 10))
	})

	valid, _ := tokens.Issue(student.ID, student.Email, student.Role)
	inactive, _ := tokens.Issue(retired.ID, retired.Email, retired.Role)
	foreign, _ := services.NewTokenService("someone-else", time.Hour).Issue(student.ID, student.Email, student.Role)
	expired, _ := services.NewTokenService("ws-test-secret", -time.Minute).Issue(student.ID, student.Email, student.Role)

	tests := []struct {
		name    string
		query   string
		header  string
		upgrade bool
		status  int
	}{
		{"query token", "?token=" + valid, "", true, fiber.StatusOK},
		{"authorization header", "", "Bearer " + valid, true, fiber.StatusOK},
		{"header wins over bad query", "?token=garbage", "Bearer " + valid, true, fiber.StatusOK},
		{"no token", "", "", true, fiber.StatusUnauthorized},
		{"garbage token", "?token=not.a.jwt", "", true, fiber.StatusUnauthorized},
		{"foreign secret", "?token=" + foreign, "", true, fiber.StatusUnauthorized},
		{"expired token", "?token=" + expired, "", true, fiber.StatusUnauthorized},
		{"inactive user", "?token=" + inactive, "", true, fiber.StatusUnauthorized},
		{"plain request", "?token=" + valid, "", false, fiber.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/ws"+tt.query, nil)
			if tt.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != strconv.FormatUint(uint64(student.ID), 10) {
					t.Errorf("identity = %s, want %d", body, student.ID)
				}
			}
		})
	}
}
