package spot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	aentity "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/entity"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/database/dbtest"
)

const adminKeyForTest = "let-me-in"

type fixture struct {
	svc    *Service
	tokens *token.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens := token.NewService([]byte("spot-test-secret"), 0, nil, nil)
	svc := NewService(dbtest.New(t), tokens, AdminAuth{Key: adminKeyForTest}, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, tokens: tokens}
}

func (f *fixture) token(t *testing.T, email string) string {
	t.Helper()
	tok, _, err := f.tokens.Sign(email)
	require.NoError(t, err)
	return tok
}

func TestCastVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.Votes)

	v, err := f.svc.CastVote(ctx, f.token(t, "a@x.com"), "a@x.com", "  Pier ")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Pier", v.Choice)
	assert.Equal(t, "2024-05-01T10:00:00Z", v.Time)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Votes))

	history, err := f.svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, *v, *history[0])

	totals, err := f.svc.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []aentity.Total{{Choice: "Pier", Votes: 1}}, totals)
}

func TestCastVote_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.token(t, "a@x.com")

	_, err := f.svc.CastVote(ctx, "", "a@x.com", "Pier")
	assert.ErrorIs(t, err, token.ErrMissingToken)
	_, err = f.svc.CastVote(ctx, "bogus", "a@x.com", "Pier")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
	_, err = f.svc.CastVote(ctx, tok, "b@x.com", "Pier")
	assert.ErrorIs(t, err, token.ErrTokenMismatch)
	_, err = f.svc.CastVote(ctx, tok, "a@x.com", "   ")
	assert.ErrorIs(t, err, ErrChoiceRequired)
	_, err = f.svc.CastVote(ctx, tok, "a@x.com", strings.Repeat("x", MaxChoiceLen+1))
	assert.ErrorIs(t, err, ErrChoiceTooLong)

	history, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAuthorize(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-key"), bcrypt.MinCost)
	require.NoError(t, err)

	cases := []struct {
		name  string
		admin AdminAuth
		key   string
		want  bool
	}{
		{"plain match", AdminAuth{Key: "k1"}, "k1", true},
		{"plain mismatch", AdminAuth{Key: "k1"}, "k2", false},
		{"empty key", AdminAuth{Key: "k1"}, "", false},
		{"nothing configured", AdminAuth{}, "anything", false},
		{"hash match", AdminAuth{KeyHash: string(hash)}, "hashed-key", true},
		{"hash mismatch", AdminAuth{KeyHash: string(hash)}, "k1", false},
		{"hash wins over plain", AdminAuth{Key: "k1", KeyHash: string(hash)}, "k1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Service{admin: tc.admin}
			assert.Equal(t, tc.want, s.Authorize(tc.key))
		})
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CastVote(ctx, f.token(t, "a@x.com"), "a@x.com", "Pier")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Reset(ctx, "wrong"), ErrInvalidCredentials)
	history, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	require.NoError(t, f.svc.Reset(ctx, adminKeyForTest))
	history, err = f.svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	// totals are kept across a reset
	totals, err := f.svc.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []aentity.Total{{Choice: "Pier", Votes: 1}}, totals)
}
