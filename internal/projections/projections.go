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

// Package projections implements C8/C9 as a single event subscriber:
// one dispatch per persisted EventEnvelope that updates the read-model
// tables (§4.9) and derives reminder rows (§4.8). Per §4.9's "eventual
// consistency", this runs out-of-band from the command handler that
// appended the event — cmd/server invokes it asynchronously, while the
// test suite calls Apply synchronously to make assertions deterministic
// (§5's "test harness forces synchronous processing").
package projections

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/reminders"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// RecipeResolver looks up the recipe records a reminder body needs
// (title, advance_prep_hours). Backed by the same FavoritesGateway the
// command handlers use, usually through a small in-memory cache since
// projections run once per event rather than once per request.
type RecipeResolver interface {
	Resolve(ctx context.Context, ids []mealplan.RecipeID) (map[mealplan.RecipeID]mealplan.Recipe, error)
}

// Subscriber dispatches persisted events onto store.Projections and C9.
type Subscriber struct {
	store     store.Projections
	recipes   RecipeResolver
	mealTimes mealplan.MealTimes
	now       func() time.Time
	log       zerolog.Logger
}

// New builds a Subscriber. mealTimes defaults to
// mealplan.DefaultMealTimes() when nil.
func New(projections store.Projections, recipes RecipeResolver, mealTimes mealplan.MealTimes, log zerolog.Logger) *Subscriber {
	if mealTimes == nil {
		mealTimes = mealplan.DefaultMealTimes()
	}
	return &Subscriber{store: projections, recipes: recipes, mealTimes: mealTimes, now: time.Now, log: log}
}

// Apply folds one event into every read model it touches. It is safe to
// call more than once with the same envelope (§4.9's idempotency law):
// every write below is an upsert or a full-replace, never an append.
func (s *Subscriber) Apply(ctx context.Context, env mealplan.EventEnvelope) error {
	switch payload := env.Payload.(type) {
	case mealplan.MealPlanGenerated:
		return s.applyGenerated(ctx, env, payload.PlanID, payload.UserID, payload.StartDate, payload.EndDate, payload.GenerationBatchID, payload.Assignments, payload.RotationState)

	case mealplan.MultiWeekMealPlanGenerated:
		for _, week := range payload.Weeks {
			if err := s.applyGenerated(ctx, env, week.PlanID, payload.UserID, week.StartDate, week.EndDate, payload.BatchID, week.Assignments, week.RotationStateAfter); err != nil {
				return err
			}
		}
		return nil

	case mealplan.MealReplaced:
		return s.applyReplaced(ctx, env, payload)

	case mealplan.MealPlanRegenerated:
		return s.applyRegenerated(ctx, env, payload)

	case mealplan.RecipeUsedInRotation:
		// Advisory only; the canonical rotation snapshot travels on the
		// Generated/Regenerated/Replaced payloads above.
		return nil

	case mealplan.PlanArchived:
		return s.applyArchived(ctx, payload)

	default:
		return fmt.Errorf("projections: unhandled event payload %T", env.Payload)
	}
}

func (s *Subscriber) applyGenerated(ctx context.Context, env mealplan.EventEnvelope, planID mealplan.MealPlanID, userID mealplan.UserID, start, end mealplan.Date, batchID mealplan.GenerationBatchID, assignments []mealplan.MealAssignment, rotation mealplan.RotationState) error {
	now := mealplan.NewInstant(s.now())
	view := store.PlanView{
		ID:                planID,
		UserID:            userID,
		StartDate:         start,
		EndDate:           end,
		IsLocked:          !start.After(mealplan.Today(nil)),
		Status:            mealplan.DeriveStatus(mealplan.DateRange{Start: start, End: end}, mealplan.Today(nil)),
		GenerationBatchID: batchID,
		RotationState:     rotation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.UpsertPlan(ctx, view); err != nil {
		return err
	}
	for _, a := range assignments {
		if err := s.store.UpsertAssignment(ctx, planID, a); err != nil {
			return err
		}
	}
	if err := s.store.UpsertRotationState(ctx, userID, batchID, rotation); err != nil {
		return err
	}
	return s.scheduleReminders(ctx, planID, userID, assignments)
}

func (s *Subscriber) applyReplaced(ctx context.Context, env mealplan.EventEnvelope, payload mealplan.MealReplaced) error {
	a := mealplan.MealAssignment{
		Date:                  payload.Date,
		MealType:              payload.MealType,
		RecipeID:              payload.NewRecipeID,
		AccompanimentRecipeID: payload.AccompanimentRecipeID,
		AssignmentReasoning:   payload.Reasoning,
	}
	if err := s.store.UpsertAssignment(ctx, payload.PlanID, a); err != nil {
		return err
	}
	if err := s.store.SupersedePendingReminders(ctx, env.Metadata.UserID, []mealplan.Date{payload.Date}); err != nil {
		return err
	}
	return s.scheduleReminders(ctx, payload.PlanID, env.Metadata.UserID, []mealplan.MealAssignment{a})
}

func (s *Subscriber) applyRegenerated(ctx context.Context, env mealplan.EventEnvelope, payload mealplan.MealPlanRegenerated) error {
	if err := s.store.ReplaceAssignments(ctx, payload.PlanID, payload.NewAssignments); err != nil {
		return err
	}
	dates := make([]mealplan.Date, 0, len(payload.NewAssignments))
	for _, a := range payload.NewAssignments {
		dates = append(dates, a.Date)
	}
	if err := s.store.SupersedePendingReminders(ctx, env.Metadata.UserID, dates); err != nil {
		return err
	}
	return s.scheduleReminders(ctx, payload.PlanID, env.Metadata.UserID, payload.NewAssignments)
}

func (s *Subscriber) applyArchived(ctx context.Context, payload mealplan.PlanArchived) error {
	// meal_plans_view's status column is recomputed by UpsertPlan at
	// generation time; archival is a one-way derived-field flip handled
	// by the caller re-reading through LoadPlan/RefreshStatus rather than
	// a separate read-model write, since §4.9 names no archived_view.
	_ = payload
	return nil
}

func (s *Subscriber) scheduleReminders(ctx context.Context, planID mealplan.MealPlanID, userID mealplan.UserID, assignments []mealplan.MealAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	ids := make([]mealplan.RecipeID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.RecipeID)
	}
	recipesByID, err := s.recipes.Resolve(ctx, ids)
	if err != nil {
		return fmt.Errorf("projections: resolve recipes for reminders: %w", err)
	}

	loc := time.UTC
	rows := reminders.ForAssignments(planID, assignments, recipesByID, userID, s.mealTimes, loc, s.now())
	for _, r := range rows {
		if err := s.store.InsertReminder(ctx, r); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		s.log.Debug().Int("count", len(rows)).Str("user_id", userID.String()).Msg("scheduled reminders")
	}
	return nil
}
