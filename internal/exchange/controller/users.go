package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gartstein/tradehub/internal/exchange/auth"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// TokenRevoker remembers revoked token ids until they expire.
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Registration is the sign-up form.
type Registration struct {
	Phone     string      `json:"phone"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
	CompanyID *uuid.UUID  `json:"company_id"`
}

// Session is a successful login.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	repo    UserRepository
	revoker TokenRevoker
	secret  string
	ttl     time.Duration
	logger  *zap.Logger
}

func NewUserService(repo UserRepository, revoker TokenRevoker, jwtSecret string, ttl time.Duration, logger *zap.Logger) *UserService {
	return &UserService{
		repo:    repo,
		revoker: revoker,
		secret:  jwtSecret,
		ttl:     ttl,
		logger:  logger.Named("user_service"),
	}
}

// Register creates a user. Anyone may sign up as a company admin or logist;
// platform roles are granted by an admin only. actor is nil for anonymous
// sign-up.
func (s *UserService) Register(ctx context.Context, actor *models.Actor, reg Registration) (*models.User, error) {
	if reg.Role == 0 {
		reg.Role = models.RoleCompanyAdmin
	}
	fields := map[string]string{}
	reg.Phone = strings.TrimSpace(reg.Phone)
	if reg.Phone == "" {
		fields["phone"] = "required field"
	}
	if reg.Role < models.RoleSuperAdmin || reg.Role > models.RoleCompanyAdmin {
		fields["role"] = "unknown role"
	}
	if len(fields) > 0 {
		return nil, e.NewValidationError(fields)
	}
	staffRole := models.Actor{Role: reg.Role}.IsStaff()
	if staffRole && (actor == nil || (actor.Role != models.RoleSuperAdmin && actor.Role != models.RoleAdmin)) {
		return nil, fmt.Errorf("%w: platform roles are granted by admins", e.ErrForbidden)
	}
	if reg.CompanyID != nil {
		if _, err := s.repo.GetCompany(ctx, *reg.CompanyID); err != nil {
			return nil, fmt.Errorf("company: %w", err)
		}
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		Phone:        reg.Phone,
		Email:        strings.TrimSpace(reg.Email),
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PasswordHash: hash,
		Role:         reg.Role,
		CompanyID:    reg.CompanyID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, e.ErrDuplicate) {
			return nil, e.NewValidationError(map[string]string{"phone": "already registered"})
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.Stringer("role", user.Role),
	)
	return user, nil
}

// Login exchanges phone and password for a signed token. Unknown phones
// and wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, phone, password string) (*Session, error) {
	user, err := s.repo.GetUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: wrong credentials", e.ErrUnauthorized)
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	token, err := auth.GenerateToken(user, s.secret, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return fmt.Errorf("%w: token has no id", e.ErrUnauthorized)
	}
	ttl := claims.Remaining()
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *UserService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.repo.GetUser(ctx, actor.UserID)
}
