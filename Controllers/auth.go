package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"AuditDesk/Models"
	"AuditDesk/middleware"
)

// AuthController handles login, logout and the current principal.
type AuthController struct {
	Users     *Models.UserRepository
	Auth      *middleware.Auth
	Validator *Validator
	Log       *zap.Logger
}

func NewAuthController(users *Models.UserRepository, auth *middleware.Auth, v *Validator, log *zap.Logger) *AuthController {
	return &AuthController{Users: users, Auth: auth, Validator: v, Log: log}
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks the credentials against the Users sheet and sets the session
// cookie.
func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var input loginInput
	if ok, err := c.Validator.parseBody(ctx, &input); !ok {
		return err
	}

	users, _, err := c.Users.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	user, ok := Models.Authenticate(users, input.Username, input.Password)
	if !ok {
		c.Log.Info("login rejected", zap.String("username", input.Username), zap.String("ip", ctx.IP()))
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	token, expires, err := c.Auth.IssueToken(user.Username)
	if err != nil {
		c.Log.Error("sign token", zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not log in"})
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ctx.JSON(user)
}

func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ctx.JSON(fiber.Map{"message": "Logged out"})
}

// User returns the principal the session cookie names.
func (c *AuthController) User(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	return ctx.JSON(user)
}
