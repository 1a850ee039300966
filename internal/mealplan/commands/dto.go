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

import "github.com/rghsoftware/mealplanner/internal/mealplan"

// RequestContext is the §6.1 caller envelope. Everything upstream of
// this package — HTTP routing, auth, sessions — is out of core scope;
// callers construct this directly.
type RequestContext struct {
	UserID    mealplan.UserID
	RequestID string
}

// AssignmentDTO is the §6.1 wire shape of a single slot.
type AssignmentDTO struct {
	Date                  mealplan.Date
	MealType              mealplan.MealType
	RecipeID              mealplan.RecipeID
	AccompanimentRecipeID *mealplan.RecipeID
	PrepRequired          bool
	PrepRequiredBy        *mealplan.Instant
	AssignmentReasoning   string
}

func assignmentDTO(a mealplan.MealAssignment) AssignmentDTO {
	return AssignmentDTO{
		Date:                  a.Date,
		MealType:              a.MealType,
		RecipeID:              a.RecipeID,
		AccompanimentRecipeID: a.AccompanimentRecipeID,
		PrepRequired:          a.PrepRequired,
		PrepRequiredBy:        a.PrepRequiredBy,
		AssignmentReasoning:   a.AssignmentReasoning,
	}
}

func assignmentDTOs(assignments []mealplan.MealAssignment) []AssignmentDTO {
	out := make([]AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, assignmentDTO(a))
	}
	return out
}

// GenerationResult is returned by Generate and Regenerate (§6.1).
type GenerationResult struct {
	PlanID      mealplan.MealPlanID
	StartDate   mealplan.Date
	EndDate     mealplan.Date
	Assignments []AssignmentDTO
}

// WeekDTO is one week of a MultiWeekResult.
type WeekDTO struct {
	PlanID      mealplan.MealPlanID
	StartDate   mealplan.Date
	EndDate     mealplan.Date
	Assignments []AssignmentDTO
}

// MultiWeekResult is returned by GenerateMultiWeek (§6.1).
type MultiWeekResult struct {
	BatchID mealplan.GenerationBatchID
	Weeks   []WeekDTO
}

// ReplacementResult is returned by ReplaceMeal (§6.1).
type ReplacementResult struct {
	Assignment  AssignmentDTO
	OldRecipeID mealplan.RecipeID
}
