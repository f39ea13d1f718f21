package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Issued access tokens are valid for one day
const tokenTTL = 24 * time.Hour

// DTOs for request validation
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	IsBlocked *bool  `json:"is_blocked"`
}

type TokenResponse struct {
	Token string          `json:"token"`
	User  ProfileResponse `json:"user"`
}

// ProfileResponse returns an account without exposing the password hash
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt string    `json:"created_at"`
}

// UserService defines the interface for account registration, login and
// admin-side user management
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	GetProfile(ctx context.Context, id string) (*ProfileResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]ProfileResponse, int64, error)
	CreateUser(ctx context.Context, actorID *uuid.UUID, req CreateUserRequest) (*ProfileResponse, error)
	UpdateUser(ctx context.Context, actorID *uuid.UUID, id string, req UpdateUserRequest) (*ProfileResponse, error)
}

type userService struct {
	repo      repository.ProfileRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	jwtSecret []byte
}

// NewUserService returns a new instance of UserService. The signing secret is
// injected; there is deliberately no built-in default.
func NewUserService(repo repository.ProfileRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, jwtSecret string) UserService {
	return &userService{repo: repo, auditRepo: auditRepo, txManager: txManager, jwtSecret: []byte(jwtSecret)}
}

func validateRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleUser
}

func mapToProfileResponse(p *model.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		IsBlocked: p.IsBlocked,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	profile := &model.Profile{
		Email:    req.Email,
		FullName: req.FullName,
		Password: string(hashed),
		Role:     model.RoleUser,
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return s.issueToken(profile)
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	profile, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	if profile.IsBlocked {
		return nil, ErrAccountBlocked
	}

	return s.issueToken(profile)
}

func (s *userService) issueToken(profile *model.Profile) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  profile.ID.String(),
		"role": profile.Role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &TokenResponse{Token: signed, User: *mapToProfileResponse(profile)}, nil
}

func (s *userService) GetProfile(ctx context.Context, id string) (*ProfileResponse, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapToProfileResponse(profile), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]ProfileResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	profiles, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, *mapToProfileResponse(&profiles[i]))
	}

	return responses, total, nil
}

func (s *userService) CreateUser(ctx context.Context, actorID *uuid.UUID, req CreateUserRequest) (*ProfileResponse, error) {
	if !validateRole(req.Role) {
		return nil, errors.New("invalid role: must be admin or user")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	profile := &model.Profile{
		Email:    req.Email,
		FullName: req.FullName,
		Password: string(hashed),
		Role:     req.Role,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, profile); createErr != nil {
			return fmt.Errorf("failed to create profile: %w", createErr)
		}

		audit := &model.AuditLog{
			UserID:     actorID,
			Action:     model.ActionCreateUser,
			EntityID:   profile.ID.String(),
			EntityName: profile.Email,
			Details:    fmt.Sprintf(`{"role": %q}`, profile.Role),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapToProfileResponse(profile), nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID *uuid.UUID, id string, req UpdateUserRequest) (*ProfileResponse, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, errors.New("invalid role: must be admin or user")
		}
		profile.Role = req.Role
	}

	if req.FullName != "" {
		profile.FullName = req.FullName
	}

	if req.IsBlocked != nil {
		profile.IsBlocked = *req.IsBlocked
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, profile); updateErr != nil {
			return fmt.Errorf("failed to update profile: %w", updateErr)
		}

		audit := &model.AuditLog{
			UserID:     actorID,
			Action:     model.ActionUpdateUser,
			EntityID:   profile.ID.String(),
			EntityName: profile.Email,
			Details:    fmt.Sprintf(`{"role": %q, "is_blocked": %t}`, profile.Role, profile.IsBlocked),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapToProfileResponse(profile), nil
}
