package spot

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	aentity "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/entity"
	analyticsrepo "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/repo"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/spot/entity"
	spotrepo "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/spot/repo"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/utilities"
)

// MaxChoiceLen bounds a spot name in runes.
const MaxChoiceLen = 64

var (
	ErrChoiceRequired     = errors.New("choice required")
	ErrChoiceTooLong      = errors.New("choice too long")
	ErrInvalidCredentials = errors.New("invalid admin credentials")
)

// TokenValidator checks a bearer token against the email it claims.
type TokenValidator interface {
	Validate(tokenString, email string) (*token.Claims, error)
}

// AdminAuth holds the admin secret, either in clear or as a bcrypt hash.
type AdminAuth struct {
	Key     string
	KeyHash string
}

// Service records votes and serves the vote log and totals.
type Service struct {
	repo      *spotrepo.SpotRepo
	analytics *analyticsrepo.AnalyticsRepo
	tokens    TokenValidator
	admin     AdminAuth
	logger    *zap.SugaredLogger
	now       func() time.Time
	newID     func() string
}

func NewService(db *sqlx.DB, tokens TokenValidator, admin AdminAuth, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		repo:      spotrepo.NewSpotRepo(db),
		analytics: analyticsrepo.NewAnalyticsRepo(db),
		tokens:    tokens,
		admin:     admin,
		logger:    logger,
		now:       time.Now,
		newID:     utilities.NewSnowflakeID,
	}
}

// CastVote records a vote for choice by the holder of a valid token for email.
func (s *Service) CastVote(ctx context.Context, tokenString, email, choice string) (*entity.Vote, error) {
	email = strings.TrimSpace(email)
	if _, err := s.tokens.Validate(tokenString, email); err != nil {
		return nil, err
	}
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return nil, ErrChoiceRequired
	}
	if utf8.RuneCountInString(choice) > MaxChoiceLen {
		return nil, ErrChoiceTooLong
	}
	v := &entity.Vote{
		ID:     s.newID(),
		Choice: choice,
		Time:   s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	metrics.Votes.Inc()
	s.logger.Infow("vote recorded", "id", v.ID, "choice", choice)
	return v, nil
}

func (s *Service) History(ctx context.Context) ([]*entity.Vote, error) {
	return s.repo.List(ctx)
}

func (s *Service) Totals(ctx context.Context) ([]aentity.Total, error) {
	return s.analytics.Totals(ctx)
}

// Authorize reports whether key is the admin key. An empty key, or no
// configured secret, never authorizes.
func (s *Service) Authorize(key string) bool {
	if key == "" {
		return false
	}
	if s.admin.KeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.admin.KeyHash), []byte(key)) == nil
	}
	if s.admin.Key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.admin.Key)) == 1
}

// Reset clears the vote log for an authorized admin. Analytics are kept.
func (s *Service) Reset(ctx context.Context, key string) error {
	if !s.Authorize(key) {
		return ErrInvalidCredentials
	}
	n, err := s.repo.Clear(ctx)
	if err != nil {
		return err
	}
	s.logger.Infow("vote log cleared", "removed", n)
	return nil
}
