package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/entity"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/database/dbtest"
)

func TestTotals(t *testing.T) {
	ctx := context.Background()
	r := NewAnalyticsRepo(dbtest.New(t))

	empty, err := r.Totals(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	for i, c := range []string{"Pier", "Beach", "Pier", "Cliff", "Beach", "Pier"} {
		ev := &entity.Event{ID: string(rune('a' + i)), Choice: c, Time: "2024-01-01T00:00:00Z"}
		require.NoError(t, r.Insert(ctx, nil, ev))
	}

	got, err := r.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Total{
		{Choice: "Pier", Votes: 3},
		{Choice: "Beach", Votes: 2},
		{Choice: "Cliff", Votes: 1},
	}, got)
}

func TestInsert_WithinTransaction(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	r := NewAnalyticsRepo(db)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, r.Insert(ctx, tx, &entity.Event{ID: "1", Choice: "Pier", Time: "t"}))
	require.NoError(t, tx.Rollback())

	got, err := r.Totals(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInsert_DuplicateID(t *testing.T) {
	ctx := context.Background()
	r := NewAnalyticsRepo(dbtest.New(t))
	ev := &entity.Event{ID: "1", Choice: "Pier", Time: "t"}
	require.NoError(t, r.Insert(ctx, nil, ev))
	err := r.Insert(ctx, nil, ev)
	assert.ErrorContains(t, err, "insert analytics event")
}
