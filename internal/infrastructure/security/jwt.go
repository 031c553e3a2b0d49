package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shopmesh/platform/internal/core/domain"
)

// Claims is the JWT payload. The subject id travels in "sub".
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 tokens with a process-wide secret.
type JWTService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type JWTOption func(*JWTService)

// WithIssuer sets "iss" on issued tokens and requires it on verification.
func WithIssuer(issuer string) JWTOption {
	return func(s *JWTService) { s.issuer = issuer }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) JWTOption {
	return func(s *JWTService) { s.now = now }
}

func NewJWTService(secret string, opts ...JWTOption) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	s := &JWTService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token whose expiry is fixed at issuance time.
func (s *JWTService) Issue(subjectID, email string, role domain.Role, ttl time.Duration) (*domain.AuthToken, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.AuthToken{
		Token:     signed,
		SubjectID: subjectID,
		Email:     email,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify trusts the signature and embedded claims; it never looks the user up.
// A token is expired once the clock is past its expiry.
func (s *JWTService) Verify(token string) (*domain.RequestIdentity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		// the exp instant itself is still valid; only later instants are expired
		jwt.WithLeeway(time.Nanosecond),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrTokenUnknown
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing subject or role", domain.ErrTokenUnknown)
	}

	return &domain.RequestIdentity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenUnknown, err)
	}
}
