// Package intake drives the conversational meal-planning questionnaire:
// a fixed catalog of typed questions and a session state machine that
// validates answers, keeps a per-question transcript and supports
// backward navigation.
package intake

// QuestionType discriminates how a question is answered and how its
// value is validated.
type QuestionType string

const (
	TypeNumber QuestionType = "number"
	TypeText   QuestionType = "text"
	TypeMulti  QuestionType = "multi"
	TypeSingle QuestionType = "select"
	TypeToggle QuestionType = "toggle"
)

// Question is a single immutable catalog entry.
type Question struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
}

// Question IDs. QIngredientAvoid is only asked by the long-form profile
// intake, not the chat catalog, but the assembler understands it.
const (
	QHouseholdSize   = "household_size"
	QPickyEaters     = "picky_eaters"
	QCookingDays     = "cooking_days"
	QGoals           = "goals"
	QSkillLevel      = "skill_level"
	QExplorationPref = "exploration_pref"
	QTone            = "tone"
	QNudges          = "nudges"
	QLearningPref    = "learning_pref"
	QIngredientAvoid = "ingredient_avoid"
)

// Option sets shared between the catalog and profile validation.
var (
	WeekdayOptions     = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	GoalOptions        = []string{"Save time", "Eat healthier", "Save money"}
	SkillLevelOptions  = []string{"beginner", "confident", "advanced"}
	ExplorationOptions = []string{"yes", "occasionally", "no"}
	ToneOptions        = []string{"coach", "companion"}
)

var catalog = []Question{
	{ID: QHouseholdSize, Prompt: "How many people are in your household?", Type: TypeNumber},
	{ID: QPickyEaters, Prompt: "Do you have any picky eaters or dietary restrictions?", Type: TypeText},
	{ID: QCookingDays, Prompt: "Which days do you usually cook?", Type: TypeMulti, Options: WeekdayOptions},
	{ID: QGoals, Prompt: "What are your goals for meal planning?", Type: TypeMulti, Options: GoalOptions},
	{ID: QSkillLevel, Prompt: "How would you describe your cooking skill level?", Type: TypeSingle, Options: SkillLevelOptions},
	{ID: QExplorationPref, Prompt: "Are you open to trying new foods?", Type: TypeSingle, Options: ExplorationOptions},
	{ID: QTone, Prompt: "Which tone do you prefer from your assistant?", Type: TypeSingle, Options: ToneOptions},
	{ID: QNudges, Prompt: "Would you like nudging reminders?", Type: TypeToggle},
	{ID: QLearningPref, Prompt: "Should I encourage learning new techniques?", Type: TypeToggle},
}

// Catalog returns a copy of the ordered question catalog.
func Catalog() []Question {
	out := make([]Question, len(catalog))
	copy(out, catalog)
	return out
}
