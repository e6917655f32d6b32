// Package profile defines the canonical, persisted meal-planning
// preference record and the assembler that normalizes raw intake
// answers into it.
package profile

import "time"

// Profile is the canonical preference record, one per user. Subsequent
// intake sessions overwrite it wholesale (last write wins, no merge).
type Profile struct {
	UserID string `json:"user_id"`

	HouseholdSize   *int     `json:"household_size"`
	PickyEaters     string   `json:"picky_eaters"`
	CookingDays     []string `json:"cooking_days"`
	Goals           []string `json:"goals"`
	DietType        string   `json:"diet_type"`
	IngredientAvoid []string `json:"ingredient_avoid"`
	SkillLevel      string   `json:"skill_level"`
	WeeknightTime   *int     `json:"weeknight_time"`
	BatchCooking    bool     `json:"batch_cooking"`
	MealsPerDay     *int     `json:"meals_per_day"`
	ExplorationPref string   `json:"exploration_pref"`
	Tone            string   `json:"tone"`
	Nudges          bool     `json:"nudges"`
	LearningPref    bool     `json:"learning_pref"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Enum baselines applied when an intake session never answered the
// corresponding question.
const (
	DefaultSkillLevel      = "beginner"
	DefaultExplorationPref = "yes"
	DefaultTone            = "coach"
)
