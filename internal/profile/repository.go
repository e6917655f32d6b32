package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository is a database-backed store for profiles, keyed by user id.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the profile, overwriting all fields of any existing
// record for the same user.
func (r *Repository) Upsert(ctx context.Context, p Profile) error {
	cookingDays, err := marshalList(p.CookingDays)
	if err != nil {
		return err
	}
	goals, err := marshalList(p.Goals)
	if err != nil {
		return err
	}
	avoid, err := marshalList(p.IngredientAvoid)
	if err != nil {
		return err
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_profiles (
			user_id, household_size, picky_eaters, cooking_days, goals,
			diet_type, ingredient_avoid, skill_level, weeknight_time,
			batch_cooking, meals_per_day, exploration_pref, tone,
			nudges, learning_pref, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			household_size = excluded.household_size,
			picky_eaters = excluded.picky_eaters,
			cooking_days = excluded.cooking_days,
			goals = excluded.goals,
			diet_type = excluded.diet_type,
			ingredient_avoid = excluded.ingredient_avoid,
			skill_level = excluded.skill_level,
			weeknight_time = excluded.weeknight_time,
			batch_cooking = excluded.batch_cooking,
			meals_per_day = excluded.meals_per_day,
			exploration_pref = excluded.exploration_pref,
			tone = excluded.tone,
			nudges = excluded.nudges,
			learning_pref = excluded.learning_pref,
			updated_at = excluded.updated_at`,
		p.UserID, nullableInt(p.HouseholdSize), p.PickyEaters, cookingDays, goals,
		p.DietType, avoid, p.SkillLevel, nullableInt(p.WeeknightTime),
		p.BatchCooking, nullableInt(p.MealsPerDay), p.ExplorationPref, p.Tone,
		p.Nudges, p.LearningPref, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %s: %w", p.UserID, err)
	}
	return nil
}

// GetByUserID retrieves a user's profile, or nil when none exists.
func (r *Repository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, household_size, picky_eaters, cooking_days, goals,
		       diet_type, ingredient_avoid, skill_level, weeknight_time,
		       batch_cooking, meals_per_day, exploration_pref, tone,
		       nudges, learning_pref, updated_at
		FROM meal_profiles WHERE user_id = ?`, userID)

	var (
		p             Profile
		householdSize sql.NullInt64
		weeknightTime sql.NullInt64
		mealsPerDay   sql.NullInt64
		cookingDays   string
		goals         string
		avoid         string
	)
	err := row.Scan(&p.UserID, &householdSize, &p.PickyEaters, &cookingDays, &goals,
		&p.DietType, &avoid, &p.SkillLevel, &weeknightTime,
		&p.BatchCooking, &mealsPerDay, &p.ExplorationPref, &p.Tone,
		&p.Nudges, &p.LearningPref, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}

	p.HouseholdSize = fromNullable(householdSize)
	p.WeeknightTime = fromNullable(weeknightTime)
	p.MealsPerDay = fromNullable(mealsPerDay)

	if p.CookingDays, err = unmarshalList(cookingDays); err != nil {
		return nil, fmt.Errorf("corrupt cooking_days for user %s: %w", userID, err)
	}
	if p.Goals, err = unmarshalList(goals); err != nil {
		return nil, fmt.Errorf("corrupt goals for user %s: %w", userID, err)
	}
	if p.IngredientAvoid, err = unmarshalList(avoid); err != nil {
		return nil, fmt.Errorf("corrupt ingredient_avoid for user %s: %w", userID, err)
	}

	return &p, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list column: %w", err)
	}
	return string(data), nil
}

func unmarshalList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
