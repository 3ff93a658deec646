package user

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/mailer"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/user/repo"
)

const (
	CodeMin = 1000
	CodeMax = 9999

	codeSubject = "Your SpotMaps Access Code"
	codeName    = "Spot Hunter"
)

// Store is the persistence the sign-in flow needs. *userrepo.UserRepo implements it.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpsertCode(ctx context.Context, email string, code int) error
}

// TokenIssuer mints and persists a token for an email whose code was verified.
type TokenIssuer interface {
	Issue(ctx context.Context, email string) (string, error)
}

var (
	ErrEmailRequired  = errors.New("email required")
	ErrCodeRequired   = errors.New("code required")
	ErrCodeMismatch   = errors.New("code does not match")
	ErrDeliveryFailed = errors.New("code delivery failed")
	ErrUserNotFound   = errors.New("user not found")
)

// UserService issues and verifies emailed one-time codes.
type UserService struct {
	repo    Store
	mail    mailer.Sender
	tokens  TokenIssuer
	logger  *zap.SugaredLogger
	newCode func() (int, error)
}

func NewUserService(db *sqlx.DB, r Store, sender mailer.Sender, tokens TokenIssuer, logger *zap.SugaredLogger) *UserService {
	if r == nil {
		r = userrepo.NewUserRepo(db)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, mail: sender, tokens: tokens, logger: logger, newCode: GenerateCode}
}

// GenerateCode returns a uniformly random code in [CodeMin, CodeMax].
func GenerateCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(CodeMax-CodeMin+1))
	if err != nil {
		return 0, err
	}
	return CodeMin + int(n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// IssueCode stores a fresh code for email (clearing any token) and mails it.
// A delivery failure returns ErrDeliveryFailed but the stored code is kept.
func (s *UserService) IssueCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.repo.UpsertCode(ctx, email, code); err != nil {
		return err
	}
	metrics.CodesIssued.Inc()

	msg := mailer.Message{
		To:      email,
		Name:    codeName,
		Subject: codeSubject,
		Body:    fmt.Sprintf("Hello %s, \n\n Your SpotMaps access code is: %d", codeName, code),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		metrics.CodeDeliveryFailures.Inc()
		s.logger.Warnw("code stored but not delivered", "email", email, "err", err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	s.logger.Debugw("code issued", "email", email)
	return nil
}

// VerifyCode reports whether code numerically equals the stored code for email.
// Unknown emails and superseded codes never match. It has no side effects.
func (s *UserService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	email = normalizeEmail(email)
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.CodeVerifications.WithLabelValues("unknown_email").Inc()
			return false, nil
		}
		return false, err
	}
	if !u.HasCode() {
		metrics.CodeVerifications.WithLabelValues("no_code").Inc()
		s.logger.Debugw("no outstanding code", "email", email, "state", string(u.State()))
		return false, nil
	}
	submitted, err := strconv.ParseFloat(strings.TrimSpace(code), 64)
	if err != nil || submitted != float64(u.Code.Int64) {
		metrics.CodeVerifications.WithLabelValues("mismatch").Inc()
		s.logger.Debugw("code mismatch", "email", email, "state", string(u.State()))
		return false, nil
	}
	metrics.CodeVerifications.WithLabelValues("match").Inc()
	return true, nil
}

// ExchangeCode verifies code for email and, on a match, returns a freshly
// issued token which supersedes the code in storage.
func (s *UserService) ExchangeCode(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if strings.TrimSpace(code) == "" {
		return "", ErrCodeRequired
	}
	ok, err := s.VerifyCode(ctx, email, code)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCodeMismatch
	}
	token, err := s.tokens.Issue(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return token, nil
}
