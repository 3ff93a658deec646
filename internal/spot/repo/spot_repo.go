package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	aentity "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/entity"
	analyticsrepo "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/repo"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/spot/entity"
)

// SpotRepo stores the vote log. Every vote is mirrored into analytics in
// the same transaction.
type SpotRepo struct {
	db        *sqlx.DB
	analytics *analyticsrepo.AnalyticsRepo
}

func NewSpotRepo(db *sqlx.DB) *SpotRepo {
	return &SpotRepo{db: db, analytics: analyticsrepo.NewAnalyticsRepo(db)}
}

func (r *SpotRepo) Create(ctx context.Context, v *entity.Vote) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := tx.Rebind(`INSERT INTO spots (id, choice, time) VALUES (?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, q, v.ID, v.Choice, v.Time); err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	if err = r.analytics.Insert(ctx, tx, &aentity.Event{ID: v.ID, Choice: v.Choice, Time: v.Time}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// List returns the vote log, newest first.
func (r *SpotRepo) List(ctx context.Context) ([]*entity.Vote, error) {
	out := []*entity.Vote{}
	const q = `SELECT id, choice, time FROM spots ORDER BY time DESC, id DESC`
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("select votes: %w", err)
	}
	return out, nil
}

// Clear empties the vote log and returns how many entries were removed.
func (r *SpotRepo) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spots`)
	if err != nil {
		return 0, fmt.Errorf("clear votes: %w", err)
	}
	return res.RowsAffected()
}
