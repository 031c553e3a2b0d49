package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72

	defaultTokenTTL = 24 * time.Hour
)

// dummyPassword is hashed once and verified against whenever a login names
// an unknown email, so both paths pay for one hash verification.
const dummyPassword = "not-a-real-password"

var _ ports.AuthService = (*AuthService)(nil)

// AuthService implements registration, login and account management.
type AuthService struct {
	store     ports.UserStore
	hasher    ports.PasswordHasher
	tokens    ports.TokenService
	publisher ports.EventPublisher
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	store ports.UserStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	publisher ports.EventPublisher,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with the default role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.SafeUser, error) {
	email, err := normalizeAndCheckEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	created, err := s.store.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		// a concurrent registration can still lose the race at the unique index
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	s.publish(ctx, domain.UserCreated{
		ID:        created.ID,
		Email:     created.Email,
		Role:      created.Role,
		Timestamp: s.now(),
	})

	safe := created.Safe()
	return &safe, nil
}

// Login verifies a credential and issues a token. Every rejection returns
// the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.hasher.Verify(password, s.dummy())
		s.loginFailed(ctx, email, "unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.IsActive {
		s.log.Debug().Str("user_id", user.ID).Msg("login rejected: account inactive")
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, email, "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.ID, user.Email, user.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.publish(ctx, domain.UserLoggedIn{
		SubjectID: user.ID,
		Email:     user.Email,
		Timestamp: s.now(),
	})

	return &ports.LoginResult{
		User:      user.Safe(),
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// ChangePassword replaces the credential after checking the current one.
// A wrong current password leaves the stored hash untouched.
func (s *AuthService) ChangePassword(ctx context.Context, subjectID, currentPassword, newPassword string) error {
	user, err := s.store.FindByID(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrIncorrectCurrentCredential
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if _, err := s.store.Update(ctx, user.ID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	s.publish(ctx, domain.UserPasswordChanged{SubjectID: user.ID, Timestamp: s.now()})
	return nil
}

// EnsureAdmin seeds an admin account at startup. An existing account with
// the same email is left as is.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email, err := normalizeAndCheckEmail(email)
	if err != nil {
		return false, err
	}
	if err := checkPassword(password); err != nil {
		return false, err
	}

	_, err = s.store.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	created, err := s.store.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Admin",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	})
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	s.publish(ctx, domain.UserCreated{
		ID:        created.ID,
		Email:     created.Email,
		Role:      created.Role,
		Timestamp: s.now(),
	})
	return true, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	s.log.Debug().Str("email", email).Str("reason", reason).Msg("login failed")
	s.publish(ctx, domain.UserLoginFailed{Email: email, Timestamp: s.now()})
}

// publish never fails the caller. The request context may be cancelled
// as soon as the response is written, so it is detached here.
func (s *AuthService) publish(ctx context.Context, ev domain.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn().Err(err).Str("topic", string(ev.Topic())).Str("key", ev.Key()).Msg("event not published")
	}
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to prepare dummy hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func normalizeAndCheckEmail(raw string) (string, error) {
	email := domain.NormalizeEmail(raw)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", domain.ErrValidation, raw)
	}
	return email, nil
}

func checkPassword(p string) error {
	if len(p) < MinPasswordLength || len(p) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be between %d and %d characters",
			domain.ErrValidation, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}
