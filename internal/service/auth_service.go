package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthService coordinates registration, login and token lifecycle.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	revoked    auth.RevocationStore
	bcryptCost int
}

// AuthDependencies bundles what the auth service needs.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Revocation auth.RevocationStore
	BcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		revoked:    deps.Revocation,
		bcryptCost: deps.BcryptCost,
	}
}

// TokenPair is returned on login.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RegisterCustomer creates a self-service customer account.
func (s *AuthService) RegisterCustomer(ctx context.Context, creds Credentials) (*domain.User, error) {
	if err := creds.normalize(); err != nil {
		return nil, err
	}
	return s.createAccount(ctx, creds, domain.RoleCustomer)
}

// RegisterSuperAdmin bootstraps a super admin. At most MaxSuperAdmins may exist.
func (s *AuthService) RegisterSuperAdmin(ctx context.Context, creds Credentials) (*domain.User, error) {
	count, err := s.users.CountByRole(ctx, domain.RoleSuperAdmin)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if count >= domain.MaxSuperAdmins {
		return nil, apperrors.NewForbidden("super admin limit reached")
	}
	if err := creds.normalize(); err != nil {
		return nil, err
	}
	return s.createAccount(ctx, creds, domain.RoleSuperAdmin)
}

func (s *AuthService) createAccount(ctx context.Context, creds Credentials, role domain.Role) (*domain.User, error) {
	if err := ensureEmailFree(ctx, s.users, creds.Email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(creds.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         creds.Name,
		Email:        creds.Email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, emailConflict(err, creds.Email)
	}
	return user, nil
}

// Login authenticates credentials and issues an access and a refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	if email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("email and password are required", nil)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, nil, apperrors.NewForbidden("account inactive")
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) issue(user *domain.User) (*TokenPair, error) {
	access, accessExp, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, refreshExp, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.tokens.ParseTokenOfKind(refreshToken, domain.TokenKindRefresh)
	if err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid refresh token")
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	if revoked {
		return "", time.Time{}, apperrors.NewUnauthorized("refresh token revoked")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, apperrors.NewUnauthorized("user not found")
		}
		return "", time.Time{}, apperrors.MapError(err)
	}
	if !user.Active {
		return "", time.Time{}, apperrors.NewForbidden("account inactive")
	}

	token, exp, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

// Logout revokes the presented access token and, when given, the caller's refresh token.
// Each revocation lives exactly as long as the token it blocks.
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if access == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	now := s.tokens.Now()

	var refresh *auth.Claims
	if refreshToken != "" {
		claims, err := s.tokens.ParseTokenOfKind(refreshToken, domain.TokenKindRefresh)
		if err != nil {
			return apperrors.NewUnauthorized("invalid refresh token")
		}
		if claims.Subject != access.Subject {
			return apperrors.NewForbidden("refresh token belongs to another user")
		}
		refresh = claims
	}

	if err := s.revoked.Revoke(ctx, access.ID, access.Remaining(now)); err != nil {
		return apperrors.NewInternalError(err)
	}
	if refresh != nil {
		if err := s.revoked.Revoke(ctx, refresh.ID, refresh.Remaining(now)); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	return nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if user == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("current password incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
