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

// Package commands implements C7: the four caller-facing command
// handlers, each loading its inputs from the ports below, invoking the
// scheduler, and emitting events through the EventStore.
package commands

import (
	"context"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// FavoritesGateway is the external recipe-service read model (§1
// "Deliberately out of scope"). Implementations live outside this
// module's core and are backed by SPEC_FULL.md's resty-based gateway.
type FavoritesGateway interface {
	ListFavorites(ctx context.Context, userID mealplan.UserID) ([]mealplan.Recipe, error)
}

// PreferencesGateway is the external user-preferences read model.
type PreferencesGateway interface {
	GetPreferences(ctx context.Context, userID mealplan.UserID) (mealplan.UserPreferences, error)
}

// RotationReader loads the latest rotation-state snapshot for a user
// from C8's read model (§2 control flow: "C7 loads ... latest rotation
// state (from C8's read model)").
type RotationReader interface {
	LatestRotationState(ctx context.Context, userID mealplan.UserID) (state mealplan.RotationState, batchID mealplan.GenerationBatchID, found bool, err error)
}

// PlanLoader loads a plan aggregate by id, replaying its event stream.
type PlanLoader interface {
	LoadPlan(ctx context.Context, planID mealplan.MealPlanID) (*mealplan.MealPlan, error)
}

// EventStore appends the events a command produces, enforcing
// optimistic concurrency on the aggregate's expected sequence number
// (§5). Append must return mperrors.ErrConcurrencyConflict (wrapped or
// bare, checked with errors.Is) when expectedSeq doesn't match.
type EventStore interface {
	Append(ctx context.Context, aggregateID mealplan.MealPlanID, expectedSeq uint64, envelopes []mealplan.EventEnvelope) error
}

// Locker is the C10 per-user generation lock boundary.
type Locker interface {
	TryAcquire(userID mealplan.UserID) (release func(), ok bool)
}
