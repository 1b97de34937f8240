package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("invalid admin role")
	ErrForbidden          = errors.New("superadmin role required")
)

const minPasswordLength = 6

type Service struct {
	repo      Repository
	sessions  SessionStore
	roleCache RoleCache
	log       *slog.Logger
	sfg       singleflight.Group
}

func NewService(repo Repository, sessions SessionStore, roleCache RoleCache, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sessions:  sessions,
		roleCache: roleCache,
		log:       log,
	}
}

// SignUp creates the account and immediately opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, name, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.log.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, token, nil
}

// SignIn checks credentials and opens a session. Missing users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// CurrentUser resolves a bearer token to its account.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		// Account deleted while the session was alive.
		return nil, ErrSessionNotFound
	}
	return user, err
}

// Role reports whether the user is an admin and with which role. Lookups
// are cached briefly and collapsed under concurrent page loads.
func (s *Service) Role(ctx context.Context, userID uuid.UUID) (AdminRole, bool, error) {
	role, isAdmin, err := s.roleCache.Get(ctx, userID)
	if err == nil {
		return role, isAdmin, nil
	}
	if !errors.Is(err, errRoleNotCached) {
		s.log.WarnContext(ctx, "role cache read failed", "error", err)
	}

	v, err, _ := s.sfg.Do("role:"+userID.String(), func() (interface{}, error) {
		admin, err := s.repo.GetAdmin(ctx, userID)
		if errors.Is(err, ErrNotAdmin) {
			s.cacheRole(userID, "", false)
			return Admin{}, nil
		}
		if err != nil {
			return nil, err
		}
		s.cacheRole(userID, admin.Role, true)
		return *admin, nil
	})
	if err != nil {
		return "", false, err
	}

	admin := v.(Admin)
	if admin.Role == "" {
		return "", false, nil
	}
	return admin.Role, true, nil
}

// IsAdmin is the yes/no form of Role.
func (s *Service) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, isAdmin, err := s.Role(ctx, userID)
	return isAdmin, err
}

// MakeAdmin grants or changes an admin role. Only superadmins may call it.
func (s *Service) MakeAdmin(ctx context.Context, actorID uuid.UUID, targetEmail string, role AdminRole) (*Admin, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	actorRole, isAdmin, err := s.Role(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin || actorRole != RoleSuperadmin {
		return nil, ErrForbidden
	}

	target, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(targetEmail)))
	if err != nil {
		return nil, err
	}

	admin := &Admin{UserID: target.ID, Email: target.Email, Role: role}
	if err := s.repo.UpsertAdmin(ctx, admin); err != nil {
		return nil, err
	}

	invalidateCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.roleCache.Delete(invalidateCtx, target.ID); err != nil {
		s.log.WarnContext(ctx, "failed to drop cached role", "user_id", target.ID, "error", err)
	}

	s.log.InfoContext(ctx, "admin role granted",
		"actor_id", actorID, "target_id", target.ID, "role", role)
	return admin, nil
}

// Dashboard returns the back-office landing counts.
func (s *Service) Dashboard(ctx context.Context) (*DashboardCounts, error) {
	return s.repo.DashboardCounts(ctx)
}

func (s *Service) cacheRole(userID uuid.UUID, role AdminRole, isAdmin bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.roleCache.Set(ctx, userID, role, isAdmin); err != nil {
		s.log.Warn("failed to cache role", "user_id", userID, "error", err)
	}
}
