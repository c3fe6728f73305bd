package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/repository"

	"go.uber.org/zap"
)

// AuthService 注册 / 登录 / token 刷新
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)

	// Authenticate checks credentials only (session login on the rendered site).
	Authenticate(ctx context.Context, req LoginRequest) (*auth.Identity, error)
	// Login checks credentials and issues an access + refresh token pair.
	Login(ctx context.Context, req LoginRequest) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error

	// ResolveBearer turns an access token into the request identity.
	ResolveBearer(ctx context.Context, accessToken string) (*auth.Identity, error)
	Me(ctx context.Context, actor *auth.Identity) (*UserDTO, error)
}

// RevocationList refresh token deny-list (store.TokenDenyList).
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type authService struct {
	users   repository.UsersRepository
	tokens  *auth.TokenManager
	revoked RevocationList
	logger  *zap.Logger
}

func NewAuthService(users repository.UsersRepository, tokens *auth.TokenManager, revoked RevocationList, logger *zap.Logger) AuthService {
	return &authService{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		logger:  logger,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

type RegisterRequest struct {
	Username string
	Email    string
	Role     string
	Password string
	Phone    string // optional
}

type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string // for logs
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

const msgBadCredentials = "No active account found with the given credentials."

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	fe := FieldErrors{}
	validateUsername(fe, req.Username)
	validateEmail(fe, req.Email)
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		fe.Add("role", fmt.Sprintf("%q is not a valid choice.", req.Role))
	}
	validatePassword(fe, req.Password, req.Username)
	if tooLong(req.Phone, maxPhoneLen) {
		fe.Add("phone", "Ensure this field has no more than 20 characters.")
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.CreateUser(ctx, &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}, req.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Duplicate("A user with that username already exists.").
				WithField("username", "A user with that username already exists.").
				Wrap(err)
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", u.ID),
		zap.String("username", u.Username),
		zap.String("role", string(u.Role)),
	)
	return toUserDTO(u, &domain.Profile{UserID: u.ID, Phone: phoneOf(req.Phone)}), nil
}

func (s *authService) Authenticate(ctx context.Context, req LoginRequest) (*auth.Identity, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		s.logger.Warn("User login failed: missing credentials",
			zap.String("ip_address", req.IPAddress),
			zap.String("reason", "missing_credentials"),
		)
		fe := FieldErrors{}
		if username == "" {
			fe.Add("username", "This field is required.")
		}
		if req.Password == "" {
			fe.Add("password", "This field is required.")
		}
		return nil, fe.Err()
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("User login failed: invalid credentials",
				zap.String("username", username),
				zap.String("ip_address", req.IPAddress),
				zap.String("reason", "unknown_user"),
			)
			return nil, Unauthenticated(msgBadCredentials)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.logger.Warn("User login failed: invalid credentials",
			zap.String("username", username),
			zap.String("ip_address", req.IPAddress),
			zap.String("reason", "wrong_password"),
		)
		return nil, Unauthenticated(msgBadCredentials)
	}

	s.logger.Info("User login successful",
		zap.Int64("user_id", u.ID),
		zap.String("ip_address", req.IPAddress),
	)
	return auth.FromUser(u), nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*auth.TokenPair, error) {
	id, err := s.Authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(id)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	claims, err := s.verifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	id, err := claims.Identity()
	if err != nil {
		return nil, Unauthenticated("Token is invalid or expired").Wrap(err)
	}
	// the account may have been removed since the token was issued
	if _, err := s.users.GetUser(ctx, id.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Unauthenticated("User not found")
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	access, err := s.tokens.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL() / time.Second),
	}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.verifyRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *authService) verifyRefresh(ctx context.Context, token string) (*auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, Validation("Invalid input.").WithField("refresh", "This field is required.")
	}
	claims, err := s.tokens.ParseRefresh(token)
	if err != nil {
		return nil, Unauthenticated("Token is invalid or expired").Wrap(err)
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, Unauthenticated("Token is blacklisted")
	}
	return claims, nil
}

func (s *authService) ResolveBearer(_ context.Context, accessToken string) (*auth.Identity, error) {
	id, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, Unauthenticated("Given token not valid for any token type").Wrap(err)
	}
	return id, nil
}

func (s *authService) Me(ctx context.Context, actor *auth.Identity) (*UserDTO, error) {
	if actor == nil {
		return nil, Unauthenticated(msgNotAuthenticated)
	}
	u, err := s.users.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Unauthenticated("User not found")
		}
		return nil, fmt.Errorf("me: %w", err)
	}
	p, err := s.users.GetProfile(ctx, u.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("me: %w", err)
	}
	return toUserDTO(u, p), nil
}
