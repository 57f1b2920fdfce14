package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"quote_api/internal/logging"
	"quote_api/internal/model"
	"quote_api/internal/repository"
	"quote_api/internal/utils"

	"github.com/google/uuid"
)

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtUtil    *utils.JWTUtil
	bcryptCost int
	now        func() time.Time

	// dummyHash is compared against when the email is unknown so a failed
	// login costs one bcrypt round either way.
	dummyHash func() string
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, bcryptCost int) AuthService {
	dummyHash := sync.OnceValue(func() string {
		hash, _ := utils.HashPasswordWithCost("not-a-real-password", bcryptCost)
		return hash
	})
	return &authService{
		userRepo:   userRepo,
		jwtUtil:    jwtUtil,
		bcryptCost: bcryptCost,
		now:        time.Now,
		dummyHash:  dummyHash,
	}
}

func (s *authService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	existingUser, err := s.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPasswordWithCost(req.Password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	userRole := model.RoleUser // Default role
	if strings.EqualFold(req.Role, model.RoleAdmin) {
		userRole = model.RoleAdmin
	}

	now := s.timestamp()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         userRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(user)
	if err != nil {
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}

	logging.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID), slog.String("role", user.Role))
	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		utils.CheckPasswordHash(password, s.dummyHash())
		return nil, "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Authenticate verifies the token and loads its user so the current role applies
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		logging.FromContext(ctx).Debug("token rejected", slog.Any("error", err))
		return nil, &AuthError{Message: MsgInvalidToken}
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if user == nil {
		return nil, &AuthError{Message: MsgUserNotFound}
	}
	return user, nil
}

// GetUserByID returns the user or a NotFoundError
func (s *authService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Entity: "User", ID: id, Message: MsgUserNotFound}
	}
	return user, nil
}

// UpdateUser applies a partial profile change. The password is re-hashed
// only when a new one is supplied.
func (s *authService) UpdateUser(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Password != nil {
		hashedPassword, err := utils.HashPasswordWithCost(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashedPassword
	}
	if user.Email == "" || user.Username == "" {
		return nil, &ValidationError{Message: "Email and username must not be empty"}
	}
	user.UpdatedAt = s.timestamp()

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrUserAlreadyExists
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, &NotFoundError{Entity: "User", ID: id, Message: MsgUserNotFound}
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	logging.FromContext(ctx).Info("user updated", slog.String("user_id", user.ID))
	return user, nil
}

// DeleteUser permanently removes the account
func (s *authService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return &NotFoundError{Entity: "User", ID: id, Message: MsgUserNotFound}
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	logging.FromContext(ctx).Info("user deleted", slog.String("user_id", id))
	return nil
}
