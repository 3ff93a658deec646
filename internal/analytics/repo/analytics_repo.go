package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/entity"
)

type AnalyticsRepo struct {
	db *sqlx.DB
}

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

// Insert records e through ex, which is the repo's database when nil or a
// caller's transaction otherwise.
func (r *AnalyticsRepo) Insert(ctx context.Context, ex sqlx.ExecerContext, e *entity.Event) error {
	if ex == nil {
		ex = r.db
	}
	q := r.db.Rebind(`INSERT INTO analytics (id, choice, time) VALUES (?, ?, ?)`)
	if _, err := ex.ExecContext(ctx, q, e.ID, e.Choice, e.Time); err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// Totals returns vote counts per spot, most voted first.
func (r *AnalyticsRepo) Totals(ctx context.Context) ([]entity.Total, error) {
	out := []entity.Total{}
	const q = `SELECT choice, COUNT(*) AS votes FROM analytics GROUP BY choice ORDER BY votes DESC, choice ASC`
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("select analytics totals: %w", err)
	}
	return out, nil
}
