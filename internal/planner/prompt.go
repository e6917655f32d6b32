package planner

import (
	"fmt"
	"strings"

	"mealweek/internal/profile"
)

// BuildPrompt maps a profile to the generation request. It is
// deterministic: equal profiles always yield byte-identical prompts,
// which is what makes the weekly cache sound. Optional fields degrade
// gracefully rather than failing.
func BuildPrompt(p *profile.Profile) string {
	household := 3
	if p.HouseholdSize != nil && *p.HouseholdSize > 0 {
		household = *p.HouseholdSize
	}

	days := "Mon–Fri"
	if len(p.CookingDays) > 0 {
		days = strings.Join(p.CookingDays, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a weekly meal plan for a family of %d", household)
	if p.PickyEaters != "" {
		fmt.Fprintf(&b, " with %s", p.PickyEaters)
	}
	fmt.Fprintf(&b, ". They cook %s.", days)

	if len(p.Goals) > 0 {
		fmt.Fprintf(&b, " They want to %s.", strings.ToLower(strings.Join(p.Goals, " and ")))
	}
	if p.Tone != "" {
		fmt.Fprintf(&b, " Keep tone %s.", p.Tone)
	}
	if len(p.IngredientAvoid) > 0 {
		fmt.Fprintf(&b, " Avoid foods with %s.", strings.Join(p.IngredientAvoid, ", "))
	}

	return b.String()
}
