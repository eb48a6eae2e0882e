package usage

import (
	"context"
	"database/sql"
	"time"
)

// PGRepo implements Repo using Postgres. One row per user; lapsed periods
// are reset in place on read.
type PGRepo struct {
	DB *sql.DB
}

// Get upserts the user's counter for the current month and returns it.
func (r *PGRepo) Get(ctx context.Context, userID, tier string, now time.Time) (Usage, error) {
	const query = `
INSERT INTO usage (user_id, tier, limit_amount, used, period_start)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (user_id) DO UPDATE SET
    tier = EXCLUDED.tier,
    limit_amount = EXCLUDED.limit_amount,
    used = CASE WHEN usage.period_start = EXCLUDED.period_start THEN usage.used ELSE 0 END,
    period_start = EXCLUDED.period_start
RETURNING user_id, tier, limit_amount, used, period_start`
	return r.scan(r.DB.QueryRowContext(ctx, query, userID, tier, LimitForTier(tier), periodStart(now)))
}

// Increment adds one consumed query to the current month's counter.
func (r *PGRepo) Increment(ctx context.Context, userID, tier string, now time.Time) (Usage, error) {
	const query = `
INSERT INTO usage (user_id, tier, limit_amount, used, period_start)
VALUES ($1, $2, $3, 1, $4)
ON CONFLICT (user_id) DO UPDATE SET
    tier = EXCLUDED.tier,
    limit_amount = EXCLUDED.limit_amount,
    used = CASE WHEN usage.period_start = EXCLUDED.period_start THEN usage.used + 1 ELSE 1 END,
    period_start = EXCLUDED.period_start
RETURNING user_id, tier, limit_amount, used, period_start`
	return r.scan(r.DB.QueryRowContext(ctx, query, userID, tier, LimitForTier(tier), periodStart(now)))
}

func (r *PGRepo) scan(row *sql.Row) (Usage, error) {
	var u Usage
	if err := row.Scan(&u.UserID, &u.Tier, &u.Limit, &u.Used, &u.PeriodStart); err != nil {
		return Usage{}, err
	}
	u.PeriodStart = u.PeriodStart.UTC()
	return u, nil
}

var _ Repo = (*PGRepo)(nil)
