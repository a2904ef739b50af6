package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"AuditDesk/Models"
)

func TestTokens(t *testing.T) {
	auth := NewAuth(Models.NewUserRepository(Models.NewMemoryStore()), "s3cret", zap.NewNop())

	token, expires, err := auth.IssueToken("amira")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenLifetime), expires, time.Minute)

	subject, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "amira", subject)

	t.Run("Should reject another secret", func(t *testing.T) {
		other := NewAuth(auth.Users, "other", zap.NewNop())
		_, err := other.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "amira",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}
		stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.Secret)
		require.NoError(t, err)
		_, err = auth.ParseToken(stale)
		assert.Error(t, err)
	})

	t.Run("Should reject a token without subject", func(t *testing.T) {
		blank, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString(auth.Secret)
		require.NoError(t, err)
		_, err = auth.ParseToken(blank)
		assert.Error(t, err)
	})

	t.Run("Should reject unsigned tokens", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "amira"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = auth.ParseToken(none)
		assert.Error(t, err)
	})
}

// countingStore counts reads of the Users sheet.
type countingStore struct {
	Models.SheetStore
	userReads int
}

func (s *countingStore) Read(ctx context.Context, name string) (Models.Sheet, error) {
	if name == Models.UsersSheet {
		s.userReads++
	}
	return s.SheetStore.Read(ctx, name)
}

func TestNestedVerify(t *testing.T) {
	store := &countingStore{SheetStore: Models.NewMemoryStore()}
	users := Models.NewUserRepository(store)
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, Models.User{Username: "admin", Password: "x", Role: Models.RoleAdmin}))
	require.NoError(t, users.Create(ctx, Models.User{Username: "amira", Password: "x", Role: Models.RoleUser}))
	auth := NewAuth(users, "s3cret", zap.NewNop())

	app := fiber.New()
	group := app.Group("/reports", auth.Verify(Models.RoleUser))
	group.Get("/summary", auth.Verify(Models.RoleAdmin), func(c *fiber.Ctx) error {
		user, _ := CurrentUser(c)
		return c.SendString(user.Username)
	})

	request := func(username string) *http.Response {
		token, _, err := auth.IssueToken(username)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/reports/summary", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("Should load the principal once for an admin route", func(t *testing.T) {
		store.userReads = 0
		resp := request("admin")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, store.userReads)
	})

	t.Run("Should still check the role of a reused principal", func(t *testing.T) {
		store.userReads = 0
		resp := request("amira")
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, 1, store.userReads)
	})
}
