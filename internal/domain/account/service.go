package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/pkg/validate"
)

// ErrInvalidCredentials is returned by Login for an unknown username or a
// wrong password. Callers must not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError carries a user-facing message for a rejected request.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

type Service struct {
	users  UserRepository
	tokens *auth.TokenManager
}

func NewService(users UserRepository, tokens *auth.TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Signup validates the request, stores the user with a bcrypt password hash,
// and returns the created user and a fresh session token.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, string, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, "", ValidationError("All fields are required")
	}
	if !validate.Username(req.Username) {
		return nil, "", ValidationError("Username must be at least 3 characters long")
	}
	if !validate.Email(req.Email) {
		return nil, "", ValidationError("Please provide a valid email address")
	}
	if !validate.Password(req.Password) {
		return nil, "", ValidationError("Password must be at least 6 characters long")
	}

	role := req.Role
	if role == "" {
		role = RolePatient
	}
	if role != RolePatient && role != RoleCaretaker {
		return nil, "", ValidationError("Role must be either patient or caretaker")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     validate.Sanitize(req.Username),
		Email:        validate.Sanitize(req.Email),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login checks the credentials and returns the user and a fresh session
// token. The identifier is matched against emails when it looks like one,
// against usernames otherwise.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, string, error) {
	identifier := validate.Sanitize(req.UsernameOrEmail)
	if identifier == "" || req.Password == "" {
		return nil, "", ValidationError("Username/Email and password are required")
	}

	lookup := s.users.GetByUsername
	if validate.Email(identifier) {
		lookup = s.users.GetByEmail
	}

	u, err := lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Me returns the current account for an authenticated user id.
func (s *Service) Me(ctx context.Context, userID int64) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) issueToken(u *User) (string, error) {
	token, err := s.tokens.Issue(auth.Identity{ID: u.ID, Username: u.Username, Role: u.Role})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
