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

// Package aggregate implements the C6 MealPlan state machine: building a
// plan from its originating event, folding subsequent events, and the
// ownership/lock invariants every mutating command must check before
// emitting one.
package aggregate

import (
	"fmt"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
)

// Build constructs a new MealPlan aggregate from the originating
// MealPlanGenerated event (§4.6's first transition). Status is left at
// its zero value; callers derive it on demand via RefreshStatus since
// it is a function of wall-clock today(), not of when the event was
// recorded.
func Build(e mealplan.MealPlanGenerated, planID mealplan.MealPlanID, occurredAt mealplan.Instant) *mealplan.MealPlan {
	return &mealplan.MealPlan{
		ID:                    planID,
		UserID:                e.UserID,
		GenerationBatchID:     e.GenerationBatchID,
		StartDate:             e.StartDate,
		EndDate:               e.EndDate,
		RotationStateSnapshot: e.RotationState,
		Assignments:           assignmentMap(e.Assignments),
		CreatedAt:             occurredAt,
		UpdatedAt:             occurredAt,
	}
}

// BuildFromWeek constructs one of a MultiWeekMealPlanGenerated batch's
// per-week aggregates (§4.6: "one aggregate per week; all share batch_id").
func BuildFromWeek(w mealplan.WeekPayload, userID mealplan.UserID, batchID mealplan.GenerationBatchID, occurredAt mealplan.Instant) *mealplan.MealPlan {
	return &mealplan.MealPlan{
		ID:                    w.PlanID,
		UserID:                userID,
		GenerationBatchID:     batchID,
		StartDate:             w.StartDate,
		EndDate:               w.EndDate,
		RotationStateSnapshot: w.RotationStateAfter,
		Assignments:           assignmentMap(w.Assignments),
		CreatedAt:             occurredAt,
		UpdatedAt:             occurredAt,
	}
}

// weekForAggregate finds the WeekPayload whose PlanID matches the event
// envelope's aggregate id, since one MultiWeekMealPlanGenerated payload
// is recorded against every week's own aggregate stream (§4.6: "one
// aggregate per week; all share batch_id").
func weekForAggregate(e mealplan.MultiWeekMealPlanGenerated, aggregateID mealplan.MealPlanID) (mealplan.WeekPayload, error) {
	for _, w := range e.Weeks {
		if w.PlanID == aggregateID {
			return w, nil
		}
	}
	return mealplan.WeekPayload{}, fmt.Errorf("aggregate: no week payload for plan %s in batch", aggregateID)
}

func assignmentMap(assignments []mealplan.MealAssignment) map[mealplan.SlotKey]mealplan.MealAssignment {
	out := make(map[mealplan.SlotKey]mealplan.MealAssignment, len(assignments))
	for _, a := range assignments {
		out[a.Key()] = a
	}
	return out
}

// Authorize enforces §4.6's "every mutating command validates
// user_id == caller_user_id" invariant. Callers run this before
// invoking the scheduler, so a failing check never does wasted work.
func Authorize(p *mealplan.MealPlan, callerUserID mealplan.UserID) error {
	if p.UserID != callerUserID {
		return &mperrors.UnauthorizedAccessError{PlanID: p.ID.String()}
	}
	return nil
}

// CheckUnlocked enforces the "¬is_locked" half of the same invariant,
// for Regenerate and ReplaceMeal.
func CheckUnlocked(p *mealplan.MealPlan, today mealplan.Date) error {
	if p.IsLocked(today) {
		return &mperrors.PlanLockedError{PlanID: p.ID.String()}
	}
	return nil
}

// Apply folds one persisted event into an in-memory aggregate and
// advances its sequence number. It performs no authorization or lock
// checks: those are the command handler's job before the event is ever
// written (§4.6's last paragraph), and replaying a past event must
// never fail differently than it did the first time it was applied.
func Apply(p *mealplan.MealPlan, envelope mealplan.EventEnvelope) error {
	switch e := envelope.Payload.(type) {
	case mealplan.MealPlanGenerated:
		*p = *Build(e, e.PlanID, envelope.OccurredAt)

	case mealplan.MultiWeekMealPlanGenerated:
		week, err := weekForAggregate(e, envelope.AggregateID)
		if err != nil {
			return err
		}
		*p = *BuildFromWeek(week, e.UserID, e.BatchID, envelope.OccurredAt)

	case mealplan.MealReplaced:
		key := mealplan.SlotKey{Date: e.Date, MealType: e.MealType}
		a := p.Assignments[key]
		a.RecipeID = e.NewRecipeID
		a.AccompanimentRecipeID = e.AccompanimentRecipeID
		a.AssignmentReasoning = e.Reasoning
		p.Assignments[key] = a
		p.UpdatedAt = envelope.OccurredAt

	case mealplan.MealPlanRegenerated:
		p.Assignments = assignmentMap(e.NewAssignments)
		p.RotationStateSnapshot = e.NewRotationState
		p.UpdatedAt = envelope.OccurredAt

	case mealplan.PlanArchived:
		p.Archived = true
		p.Status = mealplan.Archived
		p.UpdatedAt = envelope.OccurredAt

	case mealplan.RecipeUsedInRotation:
		// Advisory only (§4.6): the canonical rotation state travels in
		// the generating/regenerating event's own payload.

	default:
		return fmt.Errorf("aggregate: unrecognized event payload %T", envelope.Payload)
	}

	p.Advance(envelope.Sequence)
	return nil
}
