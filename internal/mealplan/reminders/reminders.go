/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package reminders implements C9 (§4.8): deriving Reminder rows from
// plan assignments that need advance prep. It is pure and
// side-effect-free; internal/projections calls it from the event
// subscriber and owns the actual persistence and supersede logic.
package reminders

import (
	"fmt"
	"time"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// Clock abstracts "now" so tests can pin it; production code passes
// time.Now.
type Clock func() time.Time

// ForAssignment computes the Reminder row for one assignment, or
// (Reminder{}, false) if the recipe requires no advance prep. now is
// the projection-time clock used to clamp past-due instants per §4.8.
// planID feeds the reminder's deterministic id (§9) so redelivering the
// same event — including each week-aggregate inside a multi-week batch —
// never produces a second row for the same (plan, date, meal) slot.
func ForAssignment(planID mealplan.MealPlanID, a mealplan.MealAssignment, recipe mealplan.Recipe, userID mealplan.UserID, mealTimes mealplan.MealTimes, loc *time.Location, now time.Time) (mealplan.Reminder, bool) {
	if recipe.AdvancePrepHours == 0 {
		return mealplan.Reminder{}, false
	}

	mealInstant := mealTimes.At(a.Date, a.MealType, loc)
	hours := recipe.AdvancePrepHours

	var (
		scheduled    mealplan.Instant
		reminderType mealplan.ReminderType
		body         string
	)

	switch {
	case hours >= 24:
		dayBefore := a.Date.AddDays(-1)
		y, m, d := dayBefore.Time().Date()
		scheduled = mealplan.NewInstant(time.Date(y, m, d, 9, 0, 0, 0, loc))
		reminderType = mealplan.AdvancePrep
		body = fmt.Sprintf("Marinate/prep %s tonight for %s %s", recipe.Title, a.Date.Weekday(), a.MealType)
	case hours >= 4:
		scheduled = mealInstant.Add(-time.Duration(hours) * time.Hour)
		reminderType = mealplan.AdvancePrep
		body = fmt.Sprintf("Start prep in %d hours for %s: %s", hours, a.MealType, recipe.Title)
	default:
		scheduled = mealInstant.Add(-1 * time.Hour)
		reminderType = mealplan.DayOf
		body = fmt.Sprintf("Start cooking in 1 hour: %s", recipe.Title)
	}

	if scheduled.Before(mealplan.NewInstant(now)) {
		scheduled = mealplan.NewInstant(now.Add(time.Minute))
	}

	return mealplan.Reminder{
		ID:            mealplan.DeriveNotificationID(planID, a.Date, a.MealType, reminderType),
		UserID:        userID,
		RecipeID:      a.RecipeID,
		MealDate:      a.Date,
		MealType:      a.MealType,
		ScheduledTime: scheduled,
		ReminderType:  reminderType,
		PrepHours:     hours,
		Status:        mealplan.Pending,
		Body:          body,
		CreatedAt:     mealplan.NewInstant(now),
	}, true
}

// ForAssignments derives a reminder for every assignment in assignments
// that needs one. recipesByID supplies the recipe record used for the
// title/weekday text (the caller — internal/projections — is
// responsible for resolving ids via its FavoritesGateway or a cached
// read model).
func ForAssignments(planID mealplan.MealPlanID, assignments []mealplan.MealAssignment, recipesByID map[mealplan.RecipeID]mealplan.Recipe, userID mealplan.UserID, mealTimes mealplan.MealTimes, loc *time.Location, now time.Time) []mealplan.Reminder {
	var out []mealplan.Reminder
	for _, a := range assignments {
		recipe, ok := recipesByID[a.RecipeID]
		if !ok {
			continue
		}
		if r, ok := ForAssignment(planID, a, recipe, userID, mealTimes, loc, now); ok {
			out = append(out, r)
		}
	}
	return out
}
