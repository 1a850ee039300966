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

// Package rest is the thinnest possible HTTP caller onto the C7 command
// handlers and §6.2 queries (SPEC_FULL.md §6): routing, JWT decode into
// a RequestContext, and response encoding. No template rendering, form
// parsing, or auth issuance lives here — those are the external
// surfaces spec.md §1 keeps out of scope.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rghsoftware/mealplanner/internal/api/rest/middleware"
	"github.com/rghsoftware/mealplanner/internal/config"
	"github.com/rghsoftware/mealplanner/internal/mealplan/commands"
	"github.com/rghsoftware/mealplanner/internal/narrator"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// SetupRouter wires the meal-plan command/query API.
func SetupRouter(svc *commands.Service, queries store.Projections, narr *narrator.Narrator, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	handler := &Handler{Commands: svc, Queries: queries, Narrator: narr}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAuth(cfg.Auth.JWTSecret))

	plans := v1.Group("/meal-plans")
	plans.POST("/generate", handler.Generate)
	plans.POST("/generate-multi-week", handler.GenerateMultiWeek)
	plans.POST("/:planID/regenerate", handler.Regenerate)
	plans.POST("/:planID/replace", handler.ReplaceMeal)
	plans.GET("/active", handler.GetActivePlan)
	plans.GET("/batch/:batchID", handler.GetPlansByBatch)
	plans.GET("/:planID/assignments", handler.GetAssignmentsForWeek)

	v1.GET("/reminders", handler.GetReminders)

	return router
}
