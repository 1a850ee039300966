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

// Package scheduler implements the C5 CSP engine: deterministic
// RNG-shuffled greedy assignment with bounded backtracking, producing
// 21 assignments per week for one to five weeks.
package scheduler

import (
	"time"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/rotation"
)

// Config carries the §6.5 tunables. Zero-value fields are replaced by
// their documented defaults in Schedule.
type Config struct {
	WallClockTimeout   time.Duration
	BacktrackDepthLimit int
	CuisineVarietyCap  int
}

// DefaultConfig returns the §6.5 defaults.
func DefaultConfig() Config {
	return Config{
		WallClockTimeout:    5 * time.Second,
		BacktrackDepthLimit: 10,
		CuisineVarietyCap:   5,
	}
}

func (c Config) withDefaults() Config {
	if c.WallClockTimeout <= 0 {
		c.WallClockTimeout = 5 * time.Second
	}
	if c.BacktrackDepthLimit <= 0 {
		c.BacktrackDepthLimit = 10
	}
	if c.CuisineVarietyCap <= 0 {
		c.CuisineVarietyCap = 5
	}
	return c
}

// Input is the full §4.5 schedule() argument set. Recipes is the
// caller's dietary-filtered favorites snapshot (§9 "the scheduler reads
// a snapshot of favorites at command entry").
type Input struct {
	UserID      mealplan.UserID
	StartDate   mealplan.Date
	WeekCount   int
	Recipes     []mealplan.Recipe
	Preferences mealplan.UserPreferences
	Rotation    mealplan.RotationState
	Seed        *uint64
	Now         mealplan.Instant
	MealTimes   mealplan.MealTimes
	Location    *time.Location
	Config      Config
}

// WeekPlan is one element of the Vec<WeekPlan> the scheduler returns.
type WeekPlan struct {
	StartDate          mealplan.Date
	EndDate            mealplan.Date
	Assignments        []mealplan.MealAssignment
	RotationStateAfter mealplan.RotationState
}

// deriveSeed implements §4.5's seed source: the explicit argument if
// given, else a value derived from (user_id, start_date, now truncated
// to 2^16 ns, about 65µs). Two calls for the same user/week whose now
// values fall in the same 2^16 ns window get the same seed; calls in
// different windows get different seeds.
func deriveSeed(in Input) uint64 {
	if in.Seed != nil {
		return *in.Seed
	}
	h := fnv1aInit()
	h = fnv1aString(h, in.UserID.String())
	h = fnv1aString(h, in.StartDate.String())
	h = fnv1aUint64(h, uint64(in.Now.Time().UnixNano())>>16)
	return h
}

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func fnv1aInit() uint64 { return fnvOffset }

func fnv1aString(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

func fnv1aUint64(h uint64, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= fnvPrime
		v >>= 8
	}
	return h
}

// newManager isolates the caller's RotationState behind a clone so
// Schedule never mutates the argument in place (§4.5 "No mutation of
// external state").
func newManager(state mealplan.RotationState) *rotation.Manager {
	return rotation.New(state.Clone())
}
