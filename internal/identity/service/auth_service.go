// Package service implements staff login and password management on top of the Token Service.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"restaurant-pos/backend/internal/security"
	userdomain "restaurant-pos/backend/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	ErrMissingCredentials      = errors.New("email and password are required")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrUserNotFound            = errors.New("user not found")
	ErrCurrentPasswordRequired = errors.New("current password is required")
	ErrWrongCurrentPassword    = errors.New("current password is incorrect")
	ErrNotAllowed              = errors.New("not allowed to change this user's password")
)

// LoginResult is the outcome of a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *userdomain.User
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
}

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(id security.Identity) (string, time.Time, error)
}

// AuthService implements password login and password changes. Sessions are stateless tokens,
// so there is no server-side logout.
type AuthService struct {
	users  UserRepo
	hasher *security.Hasher
	tokens TokenIssuer
	now    func() time.Time
	// dummyHash is compared against when no usable account matches, so every failed login
	// costs one bcrypt compare.
	dummyHash func() string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserRepo, hasher *security.Hasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash([]byte("no-such-account"))
			return h
		}),
	}
}

// Login authenticates with email and password and issues a session token.
// Unknown emails, disabled accounts and wrong passwords all return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive || user.PasswordHash == "" {
		_ = s.hasher.Compare(s.dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.tokens.Issue(security.Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
		Name:  user.Name,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Me returns the current user as stored, so role or status changes show up before the token expires.
func (s *AuthService) Me(ctx context.Context, userID string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ChangePasswordInput describes a password change. CanManageUsers lets the actor reset another
// user's password without the current one.
type ChangePasswordInput struct {
	ActorID         string
	CanManageUsers  bool
	TargetID        string
	CurrentPassword string
	NewPassword     string
}

// ChangePassword sets a new password for in.TargetID. Changing one's own password requires the current password.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	self := in.ActorID == in.TargetID
	if !self && !in.CanManageUsers {
		return ErrNotAllowed
	}
	if err := security.ValidatePassword(in.NewPassword); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, strings.TrimSpace(in.TargetID))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if self {
		if in.CurrentPassword == "" {
			return ErrCurrentPasswordRequired
		}
		if err := s.hasher.Compare(user.PasswordHash, []byte(in.CurrentPassword)); err != nil {
			return ErrWrongCurrentPassword
		}
	}
	hashed, err := s.hasher.Hash([]byte(in.NewPassword))
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hashed, s.now())
}
