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

package mealplan

import "github.com/google/uuid"

// EventMetadata travels with every persisted event (§6.3).
type EventMetadata struct {
	UserID    UserID
	RequestID string
}

// EventEnvelope wraps a typed payload with the fields every event carries.
type EventEnvelope struct {
	EventID     uuid.UUID
	AggregateID MealPlanID
	Sequence    uint64
	OccurredAt  Instant
	Metadata    EventMetadata
	Payload     any
}

// WeekPayload is the per-week body of a MultiWeekMealPlanGenerated event.
type WeekPayload struct {
	PlanID              MealPlanID
	StartDate           Date
	EndDate             Date
	Assignments         []MealAssignment
	RotationStateAfter  RotationState
}

// MealPlanGenerated is emitted by Generate (§4.6, §6.3).
type MealPlanGenerated struct {
	PlanID            MealPlanID
	UserID            UserID
	StartDate         Date
	EndDate           Date
	GenerationBatchID GenerationBatchID
	Assignments       []MealAssignment
	RotationState     RotationState
}

// MultiWeekMealPlanGenerated is emitted by GenerateMultiWeek.
type MultiWeekMealPlanGenerated struct {
	BatchID GenerationBatchID
	UserID  UserID
	Weeks   []WeekPayload
}

// MealReplaced is emitted by ReplaceMeal.
type MealReplaced struct {
	PlanID                MealPlanID
	Date                  Date
	MealType              MealType
	OldRecipeID           RecipeID
	NewRecipeID           RecipeID
	AccompanimentRecipeID *RecipeID
	Reasoning             string
}

// MealPlanRegenerated is emitted by Regenerate.
type MealPlanRegenerated struct {
	PlanID            MealPlanID
	NewAssignments    []MealAssignment
	NewRotationState  RotationState
	Reason            string
}

// RecipeUsedInRotation is an advisory per-use audit event; the canonical
// rotation state lives in the RotationState field of the events above.
type RecipeUsedInRotation struct {
	PlanID     MealPlanID
	RecipeID   RecipeID
	RecipeType RecipeType
	Date       Date
}

// PlanArchived marks a Past plan Archived (terminal, opt-in).
type PlanArchived struct {
	PlanID MealPlanID
}
