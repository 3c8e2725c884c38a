package identity

import (
	"context"
	"errors"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ErrInvalidCredentials hides whether the username or the password was wrong
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	catalog    identity.Catalog
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. A nil blacklist
// makes logout client-side only.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	catalog identity.Catalog,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = identity.DefaultCatalog()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		catalog:    catalog,
		logger:     logger,
	}
}

// Login authenticates a user and returns an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("username", input.Username))

	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("username", input.Username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", user.Username),
		zap.Int64("user_id", user.ID))

	return &LoginResult{
		Token:     token.AccessToken,
		ExpiresAt: token.ExpiresAt,
		TokenType: token.TokenType,
		User:      ToUserResponse(user),
		Modules:   ToModuleResponses(user.VisibleModules(s.catalog)),
	}, nil
}

// Logout revokes the presented token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.Int64("user_id", input.UserID))
	if s.blacklist == nil || input.TokenJTI == "" || input.ExpiresIn <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.ExpiresIn); err != nil {
		s.logger.Error("Failed to revoke token", zap.Int64("user_id", input.UserID), zap.Error(err))
		return err
	}
	return nil
}

// Me returns the caller's user record and visible modules. Permissions are
// read from storage so edits apply without a new login.
func (s *AuthService) Me(ctx context.Context, userID int64) (*CurrentUserResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	return &CurrentUserResult{
		User:    ToUserResponse(user),
		Modules: ToModuleResponses(user.VisibleModules(s.catalog)),
	}, nil
}

// Authorize resolves the caller's access level on a module. Administrative
// roles and global users hold full access everywhere.
func (s *AuthService) Authorize(ctx context.Context, userID int64, key identity.ModuleKey) (identity.AccessLevel, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.AccessLevel{}, shared.ErrUnauthorized
		}
		return identity.AccessLevel{}, err
	}
	if user.Role.IsAdministrative() {
		return identity.FullAccess, nil
	}
	access, _ := identity.CheckAccess(user.Subject(), s.catalog, key)
	return access, nil
}

// CatalogFromRestrictions builds the module catalog with department
// restrictions keyed by module key
func CatalogFromRestrictions(restrictions map[string][]int64) (identity.Catalog, error) {
	catalog := identity.DefaultCatalog()
	for raw, departmentIDs := range restrictions {
		key, err := identity.ParseModuleKey(raw)
		if err != nil {
			return nil, err
		}
		catalog = catalog.Restrict(key, departmentIDs...)
	}
	return catalog, nil
}
