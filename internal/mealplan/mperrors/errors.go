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

// Package mperrors collects the caller-visible error kinds of §7. Every
// scheduler/command error the core can produce is one of these, wrapped
// with errors.Is-compatible sentinels so callers can switch on kind
// without string matching.
package mperrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Use errors.Is(err, ErrInsufficientRecipes) etc.
var (
	ErrInsufficientRecipes     = errors.New("insufficient recipes")
	ErrInsufficientMainCourses = errors.New("insufficient main courses")
	ErrSchedulerUnsatisfiable  = errors.New("scheduler unsatisfiable")
	ErrSchedulerTimedOut       = errors.New("scheduler timed out")
	ErrPlanLocked              = errors.New("plan locked")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrRecipeNotFound          = errors.New("recipe not found")
	ErrUnauthorizedAccess      = errors.New("unauthorized access")
	ErrGenerationInFlight = errors.New("generation in flight")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrConcurrencyConflict is internal to the store/command boundary
	// (§5 "Retry on conflict (bounded 3 attempts) with fresh aggregate
	// load"); it never surfaces to a command caller directly.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// InsufficientRecipesError carries the remediation hint from §7.
type InsufficientRecipesError struct {
	Have, Need int
}

func (e *InsufficientRecipesError) Error() string {
	return fmt.Sprintf("insufficient recipes: have %d, need %d", e.Have, e.Need)
}
func (e *InsufficientRecipesError) Unwrap() error { return ErrInsufficientRecipes }

// InsufficientMainCoursesError is returned when the requested week_count
// can't be satisfied by strictly-unique main courses.
type InsufficientMainCoursesError struct {
	Have, Need int
}

func (e *InsufficientMainCoursesError) Error() string {
	return fmt.Sprintf("insufficient main courses: have %d, need %d", e.Have, e.Need)
}
func (e *InsufficientMainCoursesError) Unwrap() error { return ErrInsufficientMainCourses }

// SchedulerUnsatisfiableError names the blocking slot (§7, §9).
type SchedulerUnsatisfiableError struct {
	SlotDate string
	SlotMeal string
}

func (e *SchedulerUnsatisfiableError) Error() string {
	return fmt.Sprintf("scheduler unsatisfiable at %s %s", e.SlotDate, e.SlotMeal)
}
func (e *SchedulerUnsatisfiableError) Unwrap() error { return ErrSchedulerUnsatisfiable }

// PlanLockedError is final for the plan in question (§7).
type PlanLockedError struct {
	PlanID string
}

func (e *PlanLockedError) Error() string { return fmt.Sprintf("plan %s is locked", e.PlanID) }
func (e *PlanLockedError) Unwrap() error { return ErrPlanLocked }

// UnauthorizedAccessError is returned when caller_user_id != plan.user_id.
type UnauthorizedAccessError struct {
	PlanID string
}

func (e *UnauthorizedAccessError) Error() string {
	return fmt.Sprintf("caller is not authorized for plan %s", e.PlanID)
}
func (e *UnauthorizedAccessError) Unwrap() error { return ErrUnauthorizedAccess }

// GenerationInFlightError is returned when the per-user lock is held.
type GenerationInFlightError struct {
	UserID string
}

func (e *GenerationInFlightError) Error() string {
	return fmt.Sprintf("generation already in flight for user %s", e.UserID)
}
func (e *GenerationInFlightError) Unwrap() error { return ErrGenerationInFlight }

// InvalidInputError names the offending field (§7).
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: field %q: %s", e.Field, e.Reason)
}
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }
