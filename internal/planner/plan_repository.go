package planner

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PlanEntry is a cached weekly plan. WeekStart is always the Monday of
// its ISO week, so two generations within the same week share a key.
type PlanEntry struct {
	UserID    string
	WeekStart time.Time
	Content   string
	CreatedAt time.Time
}

// PlanRepository is a database-backed repository for cached plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// GetForWeek retrieves the plan cached for (user, weekStart), or nil
// when none exists.
func (r *PlanRepository) GetForWeek(ctx context.Context, userID string, weekStart time.Time) (*PlanEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, week_start, content, created_at
		FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, WeekKey(weekStart))
	return scanPlan(row)
}

// Upsert writes the plan for (user, weekStart), replacing any existing
// entry for that key. It never creates a duplicate row.
func (r *PlanRepository) Upsert(ctx context.Context, userID string, weekStart time.Time, content string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (user_id, week_start, content, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
			content = excluded.content,
			created_at = excluded.created_at`,
		userID, WeekKey(weekStart), content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert plan for user %s week %s: %w", userID, WeekKey(weekStart), err)
	}
	return nil
}

// LatestBefore retrieves the most recent cached plan from a week
// earlier than weekStart, or nil when there is none. Callers use it to
// fall back to stale content when generation fails.
func (r *PlanRepository) LatestBefore(ctx context.Context, userID string, weekStart time.Time) (*PlanEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, week_start, content, created_at
		FROM meal_plans WHERE user_id = ? AND week_start < ?
		ORDER BY week_start DESC LIMIT 1`,
		userID, WeekKey(weekStart))
	return scanPlan(row)
}

func scanPlan(row *sql.Row) (*PlanEntry, error) {
	var (
		entry   PlanEntry
		weekRaw string
	)
	err := row.Scan(&entry.UserID, &weekRaw, &entry.Content, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan row: %w", err)
	}

	entry.WeekStart, err = time.ParseInLocation("2006-01-02", weekRaw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("corrupt week_start %q: %w", weekRaw, err)
	}
	return &entry, nil
}
