package token

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/metrics"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 14 * 24 * time.Hour

var (
	ErrMissingToken  = errors.New("no token provided")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenMismatch = errors.New("token is invalid for provided email address")
)

// Store persists an issued token against its email, clearing the code.
type Store interface {
	SaveToken(ctx context.Context, email, token string) error
}

// Service signs and checks HS256 tokens with one server-held secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	store  Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(secret []byte, ttl time.Duration, store Store, logger *zap.SugaredLogger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{secret: secret, ttl: ttl, store: store, logger: logger, now: time.Now}
}

// RandomSecret returns a 32 byte key for when no secret is configured.
// Tokens signed with it do not survive a restart.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	return b, nil
}

// Sign builds the signed token for email without persisting it.
func (s *Service) Sign(email string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl).UTC()
	claims := Claims{
		Email:          email,
		ExpirationDate: exp,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Issue signs a token for an already verified email and stores it,
// superseding the code.
func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	signed, exp, err := s.Sign(email)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveToken(ctx, email, signed); err != nil {
		return "", err
	}
	metrics.TokensIssued.Inc()
	s.logger.Debugw("token issued", "email", email, "expires", exp)
	return signed, nil
}

// Parse verifies the signature and decodes the payload.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	tkn, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Validate checks signature, subject email and the embedded expiration.
// It does not consult storage, so a token superseded there still validates
// until it expires.
func (s *Service) Validate(tokenString, email string) (*Claims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		result := "invalid"
		if errors.Is(err, ErrMissingToken) {
			result = "missing"
		}
		metrics.TokenValidations.WithLabelValues(result).Inc()
		return nil, err
	}
	if claims.Email == "" || claims.Email != email ||
		claims.ExpirationDate.IsZero() || !claims.ExpirationDate.After(s.now()) {
		metrics.TokenValidations.WithLabelValues("mismatch").Inc()
		return nil, ErrTokenMismatch
	}
	metrics.TokenValidations.WithLabelValues("valid").Inc()
	return claims, nil
}
