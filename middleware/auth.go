package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"AuditDesk/Models"
)

const (
	CookieName    = "jwt"
	TokenLifetime = 24 * time.Hour
)

// Auth signs session cookies and guards routes behind them.
type Auth struct {
	Users  *Models.UserRepository
	Secret []byte
	Log    *zap.Logger
}

func NewAuth(users *Models.UserRepository, secret string, log *zap.Logger) *Auth {
	return &Auth{Users: users, Secret: []byte(secret), Log: log}
}

// IssueToken returns a signed token naming username as its subject. Expiry is
// checked against jwt.TimeFunc, so issuing uses it too.
func (a *Auth) IssueToken(username string) (string, time.Time, error) {
	now := jwt.TimeFunc()
	expires := now.Add(TokenLifetime)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	return token, expires, err
}

// ParseToken validates a token and returns its subject.
func (a *Auth) ParseToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.Secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}

// Verify lets the request through when the cookie names an existing user
// whose role is at least minimum. The user is reloaded once per request so a
// role change or removal takes effect immediately; a nested Verify only
// checks the role of the principal already loaded.
func (a *Auth) Verify(minimum Models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, ok := CurrentUser(c); ok {
			return allow(c, user, minimum)
		}

		cookie := c.Cookies(CookieName)
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not Logged In."})
		}

		username, err := a.ParseToken(cookie)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		user, err := a.Users.Find(c.UserContext(), username)
		if errors.Is(err, Models.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
		}
		if err != nil {
			a.Log.Error("load principal", zap.String("username", username), zap.Error(err))
			c.Set(fiber.HeaderRetryAfter, "30")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage unavailable, retry in a moment"})
		}

		c.Locals("user", user)
		return allow(c, user, minimum)
	}
}

func allow(c *fiber.Ctx, user Models.User, minimum Models.Role) error {
	if user.Role.Level() < minimum.Level() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions to access this resource"})
	}
	return c.Next()
}

// CurrentUser returns the principal stored by Verify.
func CurrentUser(c *fiber.Ctx) (Models.User, bool) {
	user, ok := c.Locals("user").(Models.User)
	return user, ok
}
