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

// Package recipesvc implements commands.FavoritesGateway and
// projections.RecipeResolver against the external recipe/favorites
// service over HTTP, via go-resty. The core never stores or authors
// recipes (spec.md §1); this is its only window onto them.
package recipesvc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// Client is a resty-backed FavoritesGateway/RecipeResolver.
type Client struct {
	http *resty.Client
}

// New builds a Client against baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: http}
}

// recipeDTO is the external service's wire shape for a recipe.
type recipeDTO struct {
	ID                      string   `json:"id"`
	OwnerID                 string   `json:"owner_id"`
	RecipeType              string   `json:"recipe_type"`
	Title                   string   `json:"title"`
	IngredientCount         uint32   `json:"ingredient_count"`
	InstructionStepCount    uint32   `json:"instruction_step_count"`
	PrepTimeMin             uint32   `json:"prep_time_min"`
	CookTimeMin             uint32   `json:"cook_time_min"`
	AdvancePrepHours        uint32   `json:"advance_prep_hours"`
	AdvancePrepText         string   `json:"advance_prep_text"`
	ServingSize             uint32   `json:"serving_size"`
	DietaryTags             []string `json:"dietary_tags"`
	Cuisine                 string   `json:"cuisine"`
	AcceptsAccompaniment    bool     `json:"accepts_accompaniment"`
	PreferredAccompaniments []string `json:"preferred_accompaniments"`
	AccompanimentCategory   *string  `json:"accompaniment_category"`
	InstructionText         string   `json:"instruction_text"`
	IngredientNames         []string `json:"ingredient_names"`
}

func (c *Client) toRecipe(d recipeDTO) (mealplan.Recipe, error) {
	id, err := mealplan.ParseRecipeID(d.ID)
	if err != nil {
		return mealplan.Recipe{}, fmt.Errorf("recipesvc: recipe id %q: %w", d.ID, err)
	}
	owner, err := mealplan.ParseUserID(d.OwnerID)
	if err != nil {
		return mealplan.Recipe{}, fmt.Errorf("recipesvc: owner id %q: %w", d.OwnerID, err)
	}

	tags := make([]mealplan.DietaryTag, 0, len(d.DietaryTags))
	for _, t := range d.DietaryTags {
		tags = append(tags, mealplan.ParseDietaryTag(t))
	}

	preferred := make([]mealplan.AccompanimentCategory, 0, len(d.PreferredAccompaniments))
	for _, a := range d.PreferredAccompaniments {
		preferred = append(preferred, parseAccompanimentCategory(a))
	}

	var accompCat *mealplan.AccompanimentCategory
	if d.AccompanimentCategory != nil {
		c := parseAccompanimentCategory(*d.AccompanimentCategory)
		accompCat = &c
	}

	return mealplan.Recipe{
		ID:                      id,
		OwnerID:                 owner,
		RecipeType:              parseRecipeType(d.RecipeType),
		Title:                   d.Title,
		IngredientCount:         d.IngredientCount,
		InstructionStepCount:    d.InstructionStepCount,
		PrepTimeMin:             d.PrepTimeMin,
		CookTimeMin:             d.CookTimeMin,
		AdvancePrepHours:        d.AdvancePrepHours,
		AdvancePrepText:         d.AdvancePrepText,
		ServingSize:             d.ServingSize,
		DietaryTags:             tags,
		Cuisine:                 d.Cuisine,
		AcceptsAccompaniment:    d.AcceptsAccompaniment,
		PreferredAccompaniments: preferred,
		AccompanimentCategory:   accompCat,
		InstructionText:         d.InstructionText,
		IngredientNames:         d.IngredientNames,
	}, nil
}

func parseRecipeType(s string) mealplan.RecipeType {
	switch s {
	case "main_course":
		return mealplan.MainCourse
	case "dessert":
		return mealplan.Dessert
	case "accompaniment":
		return mealplan.Accompaniment
	default:
		return mealplan.Appetizer
	}
}

func parseAccompanimentCategory(s string) mealplan.AccompanimentCategory {
	switch s {
	case "rice":
		return mealplan.Rice
	case "fries":
		return mealplan.Fries
	case "salad":
		return mealplan.Salad
	case "bread":
		return mealplan.Bread
	case "vegetable":
		return mealplan.Vegetable
	case "other":
		return mealplan.OtherAccompaniment
	default:
		return mealplan.Pasta
	}
}

// ListFavorites implements commands.FavoritesGateway.
func (c *Client) ListFavorites(ctx context.Context, userID mealplan.UserID) ([]mealplan.Recipe, error) {
	var body struct {
		Recipes []recipeDTO `json:"recipes"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetPathParam("userID", userID.String()).
		Get("/users/{userID}/favorites")
	if err != nil {
		return nil, fmt.Errorf("recipesvc: list favorites for %s: %w", userID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recipesvc: list favorites for %s: status %d", userID, resp.StatusCode())
	}

	out := make([]mealplan.Recipe, 0, len(body.Recipes))
	for _, d := range body.Recipes {
		r, err := c.toRecipe(d)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Resolve implements projections.RecipeResolver, batch-fetching recipes
// by id for reminder-body rendering.
func (c *Client) Resolve(ctx context.Context, ids []mealplan.RecipeID) (map[mealplan.RecipeID]mealplan.Recipe, error) {
	idStrs := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrs = append(idStrs, id.String())
	}

	var body struct {
		Recipes []recipeDTO `json:"recipes"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetQueryParam("ids", joinIDs(idStrs)).
		Get("/recipes")
	if err != nil {
		return nil, fmt.Errorf("recipesvc: resolve recipes: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recipesvc: resolve recipes: status %d", resp.StatusCode())
	}

	out := make(map[mealplan.RecipeID]mealplan.Recipe, len(body.Recipes))
	for _, d := range body.Recipes {
		r, err := c.toRecipe(d)
		if err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, nil
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}
