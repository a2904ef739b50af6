package Models

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is the access level of a user.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Level orders roles for permission checks.
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 4
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// User is one row of the Users sheet.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the user can manage other users' tasks.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HashPassword returns the bcrypt hash stored for new users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate against a stored password. Rows created
// before hashing was introduced hold plaintext and are compared in constant
// time.
func (u User) CheckPassword(candidate string) bool {
	if isBcryptHash(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(candidate)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// Authenticate looks up username in users and checks the password. It keeps
// no state; callers carry the returned user with each request.
func Authenticate(users []User, username, password string) (User, bool) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, false
	}
	for _, u := range users {
		if u.Username == username {
			if u.CheckPassword(password) {
				return u, true
			}
			return User{}, false
		}
	}
	return User{}, false
}

// FindUser returns the index of the user with the given name, or -1.
func FindUser(users []User, username string) int {
	for i := range users {
		if users[i].Username == username {
			return i
		}
	}
	return -1
}
