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

package store

import (
	"context"
	"fmt"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/aggregate"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
)

// LoadPlanFromEvents is the one PlanLoader implementation every backend
// shares: fetch the raw envelope stream, fold it through
// aggregate.Apply. §9 "On event replay, the snapshot in the latest event
// wins" holds automatically since Apply always takes the latest
// MealPlanGenerated/Regenerated payload's RotationState wholesale.
func LoadPlanFromEvents(ctx context.Context, events EventStore, planID mealplan.MealPlanID) (*mealplan.MealPlan, error) {
	envelopes, err := events.Load(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("store: load events for plan %s: %w", planID, err)
	}
	if len(envelopes) == 0 {
		return nil, &planNotFoundError{planID: planID}
	}

	plan := &mealplan.MealPlan{}
	for _, envelope := range envelopes {
		if err := aggregate.Apply(plan, envelope); err != nil {
			return nil, fmt.Errorf("store: replay plan %s: %w", planID, err)
		}
	}
	plan.RefreshStatus(mealplan.Today(nil))
	return plan, nil
}

type planNotFoundError struct{ planID mealplan.MealPlanID }

func (e *planNotFoundError) Error() string {
	return fmt.Sprintf("plan %s not found", e.planID)
}
func (e *planNotFoundError) Unwrap() error { return mperrors.ErrPlanNotFound }
