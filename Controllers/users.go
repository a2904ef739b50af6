package Controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"AuditDesk/Models"
)

// UserController lets administrators manage accounts.
type UserController struct {
	Users     *Models.UserRepository
	Validator *Validator
	Log       *zap.Logger
}

func NewUserController(users *Models.UserRepository, v *Validator, log *zap.Logger) *UserController {
	return &UserController{Users: users, Validator: v, Log: log}
}

type createUserInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"omitempty,oneof=User Admin"`
}

// FetchUsers lists usernames and roles. Passwords never leave the server.
func (c *UserController) FetchUsers(ctx *fiber.Ctx) error {
	users, _, err := c.Users.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.JSON(users)
}

// RegisterUser adds an account with a bcrypt-hashed password.
func (c *UserController) RegisterUser(ctx *fiber.Ctx) error {
	var input createUserInput
	if ok, err := c.Validator.parseBody(ctx, &input); !ok {
		return err
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is a required field"})
	}

	hash, err := Models.HashPassword(input.Password)
	if err != nil {
		c.Log.Error("hash password", zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}
	role := Models.RoleUser
	if input.Role != "" {
		role = Models.Role(input.Role)
	}

	user := Models.User{Username: username, Password: hash, Role: role}
	if err := c.Users.Create(ctx.UserContext(), user); err != nil {
		return respondError(ctx, c.Log, err)
	}
	c.Log.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return ctx.Status(fiber.StatusCreated).JSON(user)
}
