/*
 * Meal Planner Core - Household Meal Plan Scheduling Engine
 * Copyright (C) 2025 RGH Software
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 */

package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

func TestScore_Classification(t *testing.T) {
	tests := []struct {
		name     string
		recipe   mealplan.Recipe
		expected mealplan.Complexity
	}{
		{
			name:     "few ingredients, few steps, no advance prep is Simple",
			recipe:   mealplan.Recipe{IngredientCount: 3, InstructionStepCount: 2, AdvancePrepHours: 0},
			expected: mealplan.Simple,
		},
		{
			name:     "many ingredients and steps but no advance prep stays Simple",
			recipe:   mealplan.Recipe{IngredientCount: 10, InstructionStepCount: 10, AdvancePrepHours: 0},
			expected: mealplan.Simple,
		},
		{
			name:     "short advance prep pushes a mid-sized recipe to Moderate",
			recipe:   mealplan.Recipe{IngredientCount: 20, InstructionStepCount: 25, AdvancePrepHours: 2},
			expected: mealplan.Moderate,
		},
		{
			name:     "large recipe with long advance prep is Complex",
			recipe:   mealplan.Recipe{IngredientCount: 60, InstructionStepCount: 40, AdvancePrepHours: 24},
			expected: mealplan.Complex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, class := Score(tt.recipe)
			assert.Equal(t, tt.expected, class)
		})
	}
}

func TestScore_IsDeterministic(t *testing.T) {
	recipe := mealplan.Recipe{IngredientCount: 8, InstructionStepCount: 6, AdvancePrepHours: 4}

	score1, class1 := Score(recipe)
	score2, class2 := Score(recipe)

	assert.Equal(t, score1, score2)
	assert.Equal(t, class1, class2)
}
