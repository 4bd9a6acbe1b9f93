// Package account implements signup, login, and profile retrieval for the
// two user roles, patient and caretaker.
package account

// Roles a user can sign up as.
const (
	RolePatient   = "patient"
	RoleCaretaker = "caretaker"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the payload for authenticating. The identifier may be a
// username or an email address.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}
