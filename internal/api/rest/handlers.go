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

package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rghsoftware/mealplanner/internal/api/rest/middleware"
	"github.com/rghsoftware/mealplanner/internal/mealplan"
	"github.com/rghsoftware/mealplanner/internal/mealplan/commands"
	"github.com/rghsoftware/mealplanner/internal/mealplan/mperrors"
	"github.com/rghsoftware/mealplanner/internal/narrator"
	"github.com/rghsoftware/mealplanner/internal/store"
)

// Handler adapts the C7 command handlers and §6.2 queries onto gin.
// It is the thinnest possible caller: request decoding, a
// RequestContext, one call into commands.Service or store.Projections,
// response encoding. No business logic lives here.
type Handler struct {
	Commands *commands.Service
	Queries  store.Projections
	Narrator *narrator.Narrator
}

func requestContext(c *gin.Context) commands.RequestContext {
	return commands.RequestContext{UserID: middleware.UserID(c), RequestID: middleware.RequestID(c)}
}

// errorStatus maps the §7 error kinds onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, mperrors.ErrInsufficientRecipes),
		errors.Is(err, mperrors.ErrInsufficientMainCourses),
		errors.Is(err, mperrors.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mperrors.ErrSchedulerUnsatisfiable),
		errors.Is(err, mperrors.ErrSchedulerTimedOut):
		return http.StatusConflict
	case errors.Is(err, mperrors.ErrPlanLocked):
		return http.StatusConflict
	case errors.Is(err, mperrors.ErrPlanNotFound), errors.Is(err, mperrors.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, mperrors.ErrUnauthorizedAccess):
		return http.StatusForbidden
	case errors.Is(err, mperrors.ErrGenerationInFlight):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

type generateRequest struct {
	StartDate string `json:"start_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// Generate handles POST /meal-plans/generate (§6.1).
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var startDate *mealplan.Date
	if req.StartDate != "" {
		var d mealplan.Date
		if err := d.UnmarshalJSON([]byte(`"` + req.StartDate + `"`)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		startDate = &d
	}

	result, err := h.Commands.Generate(c.Request.Context(), requestContext(c), startDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.narrate(c, result.Assignments)
	c.JSON(http.StatusCreated, result)
}

type generateMultiWeekRequest struct {
	WeekCount int `json:"week_count" binding:"required,min=1,max=5"`
}

// GenerateMultiWeek handles POST /meal-plans/generate-multi-week (§6.1).
func (h *Handler) GenerateMultiWeek(c *gin.Context) {
	var req generateMultiWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Commands.GenerateMultiWeek(c.Request.Context(), requestContext(c), req.WeekCount)
	if err != nil {
		h.fail(c, err)
		return
	}
	for _, week := range result.Weeks {
		h.narrate(c, week.Assignments)
	}
	c.JSON(http.StatusCreated, result)
}

type regenerateRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Regenerate handles POST /meal-plans/:planID/regenerate (§6.1).
func (h *Handler) Regenerate(c *gin.Context) {
	planID, err := mealplan.ParseMealPlanID(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Commands.Regenerate(c.Request.Context(), requestContext(c), planID, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.narrate(c, result.Assignments)
	c.JSON(http.StatusOK, result)
}

type replaceMealRequest struct {
	Date        string  `json:"date" binding:"required,datetime=2006-01-02"`
	MealType    string  `json:"meal_type" binding:"required,oneof=breakfast lunch dinner"`
	NewRecipeID *string `json:"new_recipe_id,omitempty" binding:"omitempty,uuid"`
}

func parseMealType(s string) mealplan.MealType {
	switch s {
	case "lunch":
		return mealplan.Lunch
	case "dinner":
		return mealplan.Dinner
	default:
		return mealplan.Breakfast
	}
}

// ReplaceMeal handles POST /meal-plans/:planID/replace (§6.1).
func (h *Handler) ReplaceMeal(c *gin.Context) {
	planID, err := mealplan.ParseMealPlanID(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var req replaceMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var date mealplan.Date
	if err := date.UnmarshalJSON([]byte(`"` + req.Date + `"`)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	var newRecipeID *mealplan.RecipeID
	if req.NewRecipeID != nil {
		id, err := mealplan.ParseRecipeID(*req.NewRecipeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid new_recipe_id"})
			return
		}
		newRecipeID = &id
	}

	result, err := h.Commands.ReplaceMeal(c.Request.Context(), requestContext(c), planID, date, parseMealType(req.MealType), newRecipeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	result.Assignment.AssignmentReasoning = h.Narrator.RewriteReasoning(c.Request.Context(), result.Assignment.RecipeID.String(), result.Assignment.AssignmentReasoning)
	c.JSON(http.StatusOK, result)
}

// GetActivePlan handles GET /meal-plans/active (§6.2).
func (h *Handler) GetActivePlan(c *gin.Context) {
	reqCtx := requestContext(c)
	view, found, err := h.Queries.GetActivePlan(c.Request.Context(), reqCtx.UserID, mealplan.Today(nil))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active plan"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetPlansByBatch handles GET /meal-plans/batch/:batchID (§6.2).
func (h *Handler) GetPlansByBatch(c *gin.Context) {
	batchID, err := mealplan.ParseGenerationBatchID(c.Param("batchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}
	reqCtx := requestContext(c)
	views, err := h.Queries.GetPlansByBatch(c.Request.Context(), reqCtx.UserID, batchID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": views})
}

// GetAssignmentsForWeek handles GET /meal-plans/:planID/assignments (§6.2).
func (h *Handler) GetAssignmentsForWeek(c *gin.Context) {
	planID, err := mealplan.ParseMealPlanID(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}
	assignments, err := h.Queries.GetAssignmentsForWeek(c.Request.Context(), planID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// GetReminders handles GET /reminders?status=pending (§6.2).
func (h *Handler) GetReminders(c *gin.Context) {
	status := mealplan.Pending
	switch c.Query("status") {
	case "sent":
		status = mealplan.Sent
	case "dismissed":
		status = mealplan.Dismissed
	case "snoozed":
		status = mealplan.Snoozed
	case "failed":
		status = mealplan.Failed
	}

	reqCtx := requestContext(c)
	reminders, err := h.Queries.GetReminders(c.Request.Context(), reqCtx.UserID, status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

// narrate rewrites every assignment's reasoning string in place via the
// optional narrator; a nil/unconfigured Narrator is a no-op.
func (h *Handler) narrate(c *gin.Context, assignments []commands.AssignmentDTO) {
	for i := range assignments {
		assignments[i].AssignmentReasoning = h.Narrator.RewriteReasoning(c.Request.Context(), assignments[i].RecipeID.String(), assignments[i].AssignmentReasoning)
	}
}
