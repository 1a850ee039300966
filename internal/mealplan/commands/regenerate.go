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

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/aggregate"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/mealplan/rotation"
	"github.com/rghsoftware/mealplanner/internal/mealplan/scheduler"
)

// Regenerate implements §4.7: loads the plan, verifies ownership and
// that it is unlocked, preserves the rotation cycle (subtracting the
// plan's own prior uses before scoring, per §8 S10), and replaces all
// 21 assignments atomically.
func (s *Service) Regenerate(ctx context.Context, reqCtx RequestContext, planID mealplan.MealPlanID, reason string) (GenerationResult, error) {
	var result GenerationResult

	for attempt := 0; attempt < s.maxConcurrencyRetries; attempt++ {
		plan, err := s.Plans.LoadPlan(ctx, planID)
		if err != nil {
			return GenerationResult{}, err
		}
		if err := aggregate.Authorize(plan, reqCtx.UserID); err != nil {
			return GenerationResult{}, err
		}

		today := mealplan.Today(nil)
		if err := aggregate.CheckUnlocked(plan, today); err != nil {
			return GenerationResult{}, err
		}

		recipes, prefs, _, _, err := s.loadGenerationInputs(ctx, reqCtx.UserID)
		if err != nil {
			return GenerationResult{}, err
		}
		byID := recipeIndex(recipes)

		release, err := s.acquireLock(reqCtx.UserID)
		if err != nil {
			return GenerationResult{}, err
		}

		mgr := rotation.New(plan.RotationStateSnapshot.Clone())
		for _, a := range plan.Assignments {
			if r, ok := byID[a.RecipeID]; ok {
				mgr.UnmarkUsed(r)
			}
			if a.AccompanimentRecipeID != nil {
				if r, ok := byID[*a.AccompanimentRecipeID]; ok {
					mgr.UnmarkUsed(r)
				}
			}
		}

		in := s.schedulerInput(reqCtx.UserID, plan.StartDate, 1, recipes, prefs, mgr.Snapshot())
		weeks, err := scheduler.Schedule(ctx, in)
		if err != nil {
			release()
			return GenerationResult{}, err
		}
		week := weeks[0]

		occurredAt := s.now()
		regenerated := mealplan.MealPlanRegenerated{
			PlanID:           planID,
			NewAssignments:   week.Assignments,
			NewRotationState: week.RotationStateAfter,
			Reason:           reason,
		}

		nextSeq := plan.Sequence() + 1
		envelopes := []mealplan.EventEnvelope{newEnvelope(planID, nextSeq, occurredAt, reqCtx, regenerated)}
		for i, re := range rotationEvents(planID, week.Assignments, byID) {
			envelopes = append(envelopes, newEnvelope(planID, nextSeq+uint64(i)+1, occurredAt, reqCtx, re))
		}

		appendErr := s.Events.Append(ctx, planID, plan.Sequence(), envelopes)
		release()

		if appendErr != nil {
			if errors.Is(appendErr, mperrors.ErrConcurrencyConflict) {
				continue
			}
			return GenerationResult{}, appendErr
		}

		result = GenerationResult{
			PlanID:      planID,
			StartDate:   week.StartDate,
			EndDate:     week.EndDate,
			Assignments: assignmentDTOs(week.Assignments),
		}
		return result, nil
	}

	return GenerationResult{}, fmt.Errorf("regenerate %s: %w after %d attempts", planID, mperrors.ErrConcurrencyConflict, s.maxConcurrencyRetries)
}
