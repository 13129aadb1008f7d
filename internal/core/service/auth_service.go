package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lastmile/delivery-api/internal/core/domain"
	"github.com/lastmile/delivery-api/internal/core/ports"
	"github.com/lastmile/delivery-api/internal/pkg/password"
)

const (
	defaultTokenTTL   = 24 * time.Hour
	minPasswordLength = 6
)

// AuthService implements signup, login, logout and session lookup.
type AuthService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenCodec
	denylist ports.SessionDenylist
	tokenTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption configures optional AuthService collaborators.
type AuthOption func(*AuthService)

// WithDenylist enables server-side revocation of logged-out sessions.
func WithDenylist(d ports.SessionDenylist) AuthOption {
	return func(s *AuthService) { s.denylist = d }
}

func WithLogger(l zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.logger = l }
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenCodec, tokenTTL time.Duration, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	s := &AuthService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenTTL is the lifetime of sessions issued by Login.
func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }

// Signup creates an account. It does not start a session.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)

	if fullName == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, domain.NewValidationError("all fields are required")
	}
	if !in.Role.Valid() {
		return nil, domain.NewValidationError("invalid role")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(in.Password) > password.MaxLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at most %d bytes", password.MaxLength))
	}

	// Fast path only: the store's unique index is the real guard against
	// two concurrent signups for the same email.
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("signup: lookup: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("signup: create: %w", err)
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("account created")
	return created, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend a comparison anyway so response time does not reveal
			// whether the account exists.
			s.hasher.Verify(in.Password, s.dummy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if in.Role != "" && in.Role != user.Role {
		return nil, domain.ErrInvalidCredentials
	}

	signed, sess, err := s.tokens.Issue(user.Claims(), s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("session_id", sess.ID).Msg("session issued")
	return &ports.LoginResult{Token: signed, ExpiresAt: sess.ExpiresAt, User: user}, nil
}

// Logout verifies the token once and, when a denylist is configured, revokes
// its session. Without one, logout is purely client-side. The verified
// session is returned even if revocation fails.
func (s *AuthService) Logout(ctx context.Context, raw string) (*domain.Session, error) {
	if raw == "" {
		return nil, nil
	}
	sess, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, nil
	}

	remaining := sess.Remaining(s.now())
	if s.denylist == nil || remaining == 0 {
		return &sess, nil
	}
	if err := s.denylist.Revoke(ctx, sess.ID, remaining); err != nil {
		return &sess, fmt.Errorf("logout: revoke session: %w", err)
	}
	s.logger.Info().Str("user_id", sess.UserID).Str("session_id", sess.ID).Msg("session revoked")
	return &sess, nil
}

// CurrentUser resolves a raw session token to its verified session.
func (s *AuthService) CurrentUser(ctx context.Context, raw string) (*domain.Session, error) {
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	sess, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if !sess.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthenticated, sess.Role)
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("current user: check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrSessionRevoked)
		}
	}

	return &sess, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("lastmile-timing-equalizer")
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to prepare dummy hash")
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
