package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-arena-service/internal/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// LoginResult is handed back to the client after a successful login.
type LoginResult struct {
	SessionID string      `json:"sessionId"`
	Role      domain.Role `json:"role"`
}

// AuthService covers registration, login and session validation.
type AuthService struct {
	users      UserRepository
	sessions   SessionRepository
	hasher     PasswordHasher
	newToken   TokenSource
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthService(users UserRepository, sessions SessionRepository, hasher PasswordHasher, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		newToken:   RandomToken,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// WithClock swaps the time source; tests only.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// NormalizeEmail is the canonical form used for uniqueness and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a student account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	return s.createUser(ctx, in, domain.RoleStudent)
}

// CreateAdmin creates an admin account; it is only reachable from the CLI.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (domain.User, error) {
	return s.createUser(ctx, in, domain.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role domain.Role) (domain.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := NormalizeEmail(in.Email)
	if fullName == "" || email == "" || in.Password == "" {
		return domain.User{}, fmt.Errorf("%w: fullName, email and password are required", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		QuizStatus:   domain.QuizUnattempted,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and opens a session. Students who already
// finished (or were disqualified from) the quiz are refused.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	// locked students are refused whether or not the password matches
	if user.Role == domain.RoleStudent && user.QuizStatus.Locked() {
		return LoginResult{}, domain.ErrQuizLocked
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	token, err := s.newToken()
	if err != nil {
		return LoginResult{}, fmt.Errorf("mint session token: %w", err)
	}
	session := domain.Session{
		Token:  token,
		UserID: user.ID,
		Role:   user.Role,
	}
	if s.sessionTTL > 0 {
		session.ExpiresAt = s.now().Add(s.sessionTTL)
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("save session: %w", err)
	}
	return LoginResult{SessionID: token, Role: user.Role}, nil
}

// Logout drops the session; unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return domain.Session{}, domain.ErrUnauthorized
	}
	return session, nil
}

// RequireRole fails with domain.ErrForbidden when the session role differs.
func RequireRole(session domain.Session, role domain.Role) error {
	if session.Role != role {
		return domain.ErrForbidden
	}
	return nil
}
