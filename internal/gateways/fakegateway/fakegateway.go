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

// Package fakegateway is an in-memory stand-in for recipesvc/prefsvc,
// used by the command-handler and projection test suites so they never
// depend on a live HTTP service.
package fakegateway

import (
	"context"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// Favorites is a fixture-backed commands.FavoritesGateway.
type Favorites struct {
	ByUser map[mealplan.UserID][]mealplan.Recipe
	Err    error
}

func NewFavorites() *Favorites {
	return &Favorites{ByUser: make(map[mealplan.UserID][]mealplan.Recipe)}
}

func (f *Favorites) ListFavorites(ctx context.Context, userID mealplan.UserID) ([]mealplan.Recipe, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ByUser[userID], nil
}

// Resolve implements projections.RecipeResolver by indexing every
// recipe registered across all users.
func (f *Favorites) Resolve(ctx context.Context, ids []mealplan.RecipeID) (map[mealplan.RecipeID]mealplan.Recipe, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	wanted := make(map[mealplan.RecipeID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make(map[mealplan.RecipeID]mealplan.Recipe)
	for _, recipes := range f.ByUser {
		for _, r := range recipes {
			if wanted[r.ID] {
				out[r.ID] = r
			}
		}
	}
	return out, nil
}

// Preferences is a fixture-backed commands.PreferencesGateway.
type Preferences struct {
	ByUser map[mealplan.UserID]mealplan.UserPreferences
	Err    error
}

func NewPreferences() *Preferences {
	return &Preferences{ByUser: make(map[mealplan.UserID]mealplan.UserPreferences)}
}

func (p *Preferences) GetPreferences(ctx context.Context, userID mealplan.UserID) (mealplan.UserPreferences, error) {
	if p.Err != nil {
		return mealplan.UserPreferences{}, p.Err
	}
	if prefs, ok := p.ByUser[userID]; ok {
		return prefs, nil
	}
	return mealplan.DefaultUserPreferences(), nil
}
