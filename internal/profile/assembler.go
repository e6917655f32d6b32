package profile

import (
	"time"

	"mealweek/internal/intake"
)

// FromAnswers normalizes a raw answer map into a Profile. It is total:
// any missing or zero answer falls back to a documented default, so it
// never fails. Set-valued fields are filtered against the catalog's
// option sets.
func FromAnswers(userID string, answers map[string]intake.Value) Profile {
	p := Profile{
		UserID:          userID,
		HouseholdSize:   intPointer(answers[intake.QHouseholdSize].Number),
		PickyEaters:     answers[intake.QPickyEaters].Text,
		CookingDays:     filterOptions(answers[intake.QCookingDays].List, intake.WeekdayOptions),
		Goals:           filterOptions(answers[intake.QGoals].List, intake.GoalOptions),
		IngredientAvoid: intake.SplitList(answers[intake.QIngredientAvoid].Text),
		SkillLevel:      answers[intake.QSkillLevel].Text,
		ExplorationPref: answers[intake.QExplorationPref].Text,
		Tone:            answers[intake.QTone].Text,
		Nudges:          answers[intake.QNudges].Bool,
		LearningPref:    answers[intake.QLearningPref].Bool,
		UpdatedAt:       time.Now().UTC(),
	}

	if p.SkillLevel == "" {
		p.SkillLevel = DefaultSkillLevel
	}
	if p.ExplorationPref == "" {
		p.ExplorationPref = DefaultExplorationPref
	}
	if p.Tone == "" {
		p.Tone = DefaultTone
	}
	return p
}

// intPointer converts a numeric answer to an optional integer. Zero
// counts as unset, matching the source system's Number(x) || null
// coercion.
func intPointer(n float64) *int {
	v := int(n)
	if v == 0 {
		return nil
	}
	return &v
}

// filterOptions keeps only values that appear in the allowed option
// set, preserving order and dropping duplicates.
func filterOptions(values, allowed []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		if seen[v] {
			continue
		}
		for _, opt := range allowed {
			if v == opt {
				out = append(out, v)
				seen[v] = true
				break
			}
		}
	}
	return out
}
