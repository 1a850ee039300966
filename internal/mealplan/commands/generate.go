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

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/mealplan/scheduler"
)

// Generate implements §4.7's single-week generation.
func (s *Service) Generate(ctx context.Context, reqCtx RequestContext, startDate *mealplan.Date) (GenerationResult, error) {
	recipes, prefs, rotationState, _, err := s.loadGenerationInputs(ctx, reqCtx.UserID)
	if err != nil {
		return GenerationResult{}, err
	}
	if len(recipes) < 7 {
		return GenerationResult{}, &mperrors.InsufficientRecipesError{Have: len(recipes), Need: 7}
	}

	release, err := s.acquireLock(reqCtx.UserID)
	if err != nil {
		return GenerationResult{}, err
	}
	defer release()

	start := mealplan.Today(mealplan.ResolveLocation(prefs.Timezone)).NextMonday()
	if startDate != nil {
		start = startDate.NextMonday()
	}

	weeks, err := scheduler.Schedule(ctx, s.schedulerInput(reqCtx.UserID, start, 1, recipes, prefs, rotationState))
	if err != nil {
		return GenerationResult{}, err
	}
	week := weeks[0]

	planID := mealplan.NewMealPlanID()
	batchID := mealplan.NewGenerationBatchID()
	occurredAt := s.now()

	generated := mealplan.MealPlanGenerated{
		PlanID:            planID,
		UserID:            reqCtx.UserID,
		StartDate:         week.StartDate,
		EndDate:           week.EndDate,
		GenerationBatchID: batchID,
		Assignments:       week.Assignments,
		RotationState:     week.RotationStateAfter,
	}

	envelopes := []mealplan.EventEnvelope{newEnvelope(planID, 1, occurredAt, reqCtx, generated)}
	byID := recipeIndex(recipes)
	for seq, re := range rotationEvents(planID, week.Assignments, byID) {
		envelopes = append(envelopes, newEnvelope(planID, uint64(seq+2), occurredAt, reqCtx, re))
	}

	if err := s.Events.Append(ctx, planID, 0, envelopes); err != nil {
		return GenerationResult{}, err
	}

	return GenerationResult{
		PlanID:      planID,
		StartDate:   week.StartDate,
		EndDate:     week.EndDate,
		Assignments: assignmentDTOs(week.Assignments),
	}, nil
}

// GenerateMultiWeek implements §4.7's multi-week batch generation.
func (s *Service) GenerateMultiWeek(ctx context.Context, reqCtx RequestContext, weekCount int) (MultiWeekResult, error) {
	if weekCount < 1 || weekCount > 5 {
		return MultiWeekResult{}, &mperrors.InvalidInputError{Field: "week_count", Reason: "must be within [1, 5]"}
	}

	recipes, prefs, rotationState, _, err := s.loadGenerationInputs(ctx, reqCtx.UserID)
	if err != nil {
		return MultiWeekResult{}, err
	}
	if len(recipes) < 7 {
		return MultiWeekResult{}, &mperrors.InsufficientRecipesError{Have: len(recipes), Need: 7}
	}

	release, err := s.acquireLock(reqCtx.UserID)
	if err != nil {
		return MultiWeekResult{}, err
	}
	defer release()

	start := mealplan.Today(mealplan.ResolveLocation(prefs.Timezone)).NextMonday()

	weeks, err := scheduler.Schedule(ctx, s.schedulerInput(reqCtx.UserID, start, weekCount, recipes, prefs, rotationState))
	if err != nil {
		return MultiWeekResult{}, err
	}

	batchID := mealplan.NewGenerationBatchID()
	occurredAt := s.now()
	byID := recipeIndex(recipes)

	payload := mealplan.MultiWeekMealPlanGenerated{BatchID: batchID, UserID: reqCtx.UserID}
	weekIDs := make([]mealplan.MealPlanID, 0, len(weeks))
	for _, w := range weeks {
		planID := mealplan.NewMealPlanID()
		weekIDs = append(weekIDs, planID)
		payload.Weeks = append(payload.Weeks, mealplan.WeekPayload{
			PlanID:             planID,
			StartDate:          w.StartDate,
			EndDate:            w.EndDate,
			Assignments:        w.Assignments,
			RotationStateAfter: w.RotationStateAfter,
		})
	}

	// One MultiWeekMealPlanGenerated event is recorded against each
	// week's aggregate id so replaying any single plan's stream sees the
	// batch event that created it, per §4.6's "one aggregate per week;
	// all share batch_id".
	for i, planID := range weekIDs {
		weekEnvelopes := []mealplan.EventEnvelope{newEnvelope(planID, 1, occurredAt, reqCtx, payload)}
		for seq, re := range rotationEvents(planID, weeks[i].Assignments, byID) {
			weekEnvelopes = append(weekEnvelopes, newEnvelope(planID, uint64(seq+2), occurredAt, reqCtx, re))
		}
		if err := s.Events.Append(ctx, planID, 0, weekEnvelopes); err != nil {
			return MultiWeekResult{}, err
		}
	}

	result := MultiWeekResult{BatchID: batchID}
	for i, w := range weeks {
		result.Weeks = append(result.Weeks, WeekDTO{
			PlanID:      weekIDs[i],
			StartDate:   w.StartDate,
			EndDate:     w.EndDate,
			Assignments: assignmentDTOs(w.Assignments),
		})
	}
	return result, nil
}
