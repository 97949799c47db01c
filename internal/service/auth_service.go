package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ticketing-backend/internal/logging"
	"cinema-ticketing-backend/internal/metrics"
	"cinema-ticketing-backend/internal/models"
	"cinema-ticketing-backend/internal/repository"
	"cinema-ticketing-backend/internal/revocation"
	"cinema-ticketing-backend/pkg/utils"
)

type userStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUserWithRole(ctx context.Context, user *models.User) error
}

type refreshTokenStore interface {
	ReplaceRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, userID uint, hash string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, id uint) error
	DeleteRefreshTokensByUser(ctx context.Context, userID uint) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, userID *uint, action string, details string) error
}

type AuthService struct {
	users     userStore
	refresh   refreshTokenStore
	audit     auditLogger
	tokens    *utils.TokenManager
	passwords *utils.PasswordHasher
	denylist  revocation.Denylist
	metrics   *metrics.Metrics
}

// AuthServiceOption configures optional collaborators of AuthService
type AuthServiceOption func(*AuthService)

// WithDenylist makes logout revoke the presented access token until it expires
func WithDenylist(d revocation.Denylist) AuthServiceOption {
	return func(s *AuthService) { s.denylist = d }
}

func WithMetrics(m *metrics.Metrics) AuthServiceOption {
	return func(s *AuthService) { s.metrics = m }
}

func NewAuthService(
	users userStore,
	refresh refreshTokenStore,
	audit auditLogger,
	tokens *utils.TokenManager,
	passwords *utils.PasswordHasher,
	opts ...AuthServiceOption,
) *AuthService {
	s := &AuthService{
		users:     users,
		refresh:   refresh,
		audit:     audit,
		tokens:    tokens,
		passwords: passwords,
		denylist:  revocation.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the validated registration fields
type RegisterInput struct {
	Username    string
	FirstName   string
	LastName    string
	Password    string
	Role        string
	Gender      *string
	DateOfBirth *time.Time
	Address     *string
	ZipCode     *string
	City        *string
	PhoneNumber *string
	CinemaID    *uint
}

// AuthResult represents the response structure for register, login and refresh
type AuthResult struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type UserResponse struct {
	ID        uint   `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// Register creates a user with its role record and opens a session for it
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	if in.Role == "" {
		in.Role = models.RoleClient
	}
	if !models.IsValidRole(in.Role) {
		s.metrics.AuthEvent("register", "invalid_role")
		return nil, ErrInvalidRole
	}

	// Hash the password
	passwordHash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Gender:       in.Gender,
		DateOfBirth:  in.DateOfBirth,
		Address:      in.Address,
		ZipCode:      in.ZipCode,
		City:         in.City,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: passwordHash,
		Role:         in.Role,
		CinemaID:     in.CinemaID,
	}

	if err := s.users.CreateUserWithRole(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUser):
			s.metrics.AuthEvent("register", "conflict")
			l.Warn("register rejected", "reason", "username taken")
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrDuplicatePhone):
			s.metrics.AuthEvent("register", "conflict")
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthEvent("register", "success")
	s.record(ctx, user.ID, models.AuditUserRegistration, fmt.Sprintf("User %s registered as %s", user.Username, user.Role))
	l.Info("user registered", "user_id", user.ID, "role", user.Role)
	return result, nil
}

// Login authenticates a user and returns tokens. Unknown usernames and wrong
// passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	// Find user by username
	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// keep the response time of unknown usernames in line with wrong passwords
			s.passwords.CompareDummy(password)
			s.metrics.AuthEvent("login", "invalid_credentials")
			l.Warn("login failed", "reason", "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Compare password
	if !s.passwords.ComparePassword(user.PasswordHash, password) {
		s.metrics.AuthEvent("login", "invalid_credentials")
		l.Warn("login failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthEvent("login", "success")
	s.record(ctx, user.ID, models.AuditUserLogin, fmt.Sprintf("User %s logged in", user.Username))
	return result, nil
}

// Refresh exchanges a stored refresh token for a new pair. The presented token
// must verify and still be the user's current session row.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.metrics.AuthEvent("refresh", "invalid_token")
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.refresh.FindRefreshToken(ctx, claims.UserID, utils.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.AuthEvent("refresh", "revoked")
			l.Warn("refresh rejected", "reason", "token not stored", "user_id", claims.UserID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if !stored.ExpiresAt.After(time.Now().UTC()) {
		if err := s.refresh.DeleteRefreshToken(ctx, stored.ID); err != nil {
			l.Error("failed to delete expired refresh token", "error", err)
		}
		s.metrics.AuthEvent("refresh", "expired")
		return nil, ErrInvalidRefreshToken
	}

	// Role may have changed since the token was issued
	user, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.AuthEvent("refresh", "user_not_found")
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthEvent("refresh", "success")
	s.record(ctx, user.ID, models.AuditTokenRefresh, fmt.Sprintf("User %s refreshed tokens", user.Username))
	return result, nil
}

// Logout deletes the user's stored session. It succeeds when there is none.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", claims.UserID)

	if err := s.refresh.DeleteRefreshTokensByUser(ctx, claims.UserID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
			l.Error("failed to denylist access token", "error", err)
		}
	}

	s.metrics.AuthEvent("logout", "success")
	s.record(ctx, claims.UserID, models.AuditUserLogout, fmt.Sprintf("User %s logged out", claims.Username))
	return nil
}

// CurrentUser returns the full profile of the authenticated user
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.tokens.GeneratePair(utils.TokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	// Hash and store refresh token, replacing any earlier session
	if err := s.refresh.ReplaceRefreshToken(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt.UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResult{
		User:         NewUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *AuthService) record(ctx context.Context, userID uint, action, details string) {
	if err := s.audit.CreateAuditLog(ctx, &userID, action, details); err != nil {
		logging.FromContext(ctx).Warn("failed to write audit log", "action", action, "error", err)
	}
}
