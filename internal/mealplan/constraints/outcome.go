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

// Package constraints implements the C2 constraint evaluators: pure
// functions per constraint returning either a reject or a [0,1] score.
package constraints

import "github.com/rghsoftware/mealplanner/internal/mealplan"

// Outcome is the result of evaluating one constraint against one
// (recipe, slot) pair: either Reject, or a Score in [0.0, 1.0].
type Outcome struct {
	rejected bool
	score    float32
}

func Reject() Outcome { return Outcome{rejected: true} }
func Scored(v float32) Outcome {
	return Outcome{score: clamp01(v)}
}

func (o Outcome) Rejected() bool { return o.rejected }

// Score returns the [0,1] score. It is only meaningful when !Rejected().
func (o Outcome) Score() float32 { return o.score }

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// DayContext carries same-day and previous-day state needed by the
// soft/hard evaluators: equipment already committed to the day's other
// slots, and whether the previous day's dinner was Complex.
type DayContext struct {
	Date                     mealplan.Date
	EquipmentUsedToday       map[mealplan.Equipment]int
	PreviousDayDinnerComplex bool
	// PlanCutoff is the instant generation happened; advance-prep
	// feasibility is measured against it (§4.2).
	PlanCutoff mealplan.Instant
}

// NewDayContext returns an empty context for the given date.
func NewDayContext(date mealplan.Date, cutoff mealplan.Instant) DayContext {
	return DayContext{
		Date:               date,
		EquipmentUsedToday: make(map[mealplan.Equipment]int),
		PlanCutoff:         cutoff,
	}
}
