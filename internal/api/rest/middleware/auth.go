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

// Package middleware holds the one piece of HTTP plumbing cmd/server
// needs: decoding a bearer JWT into a user id. Issuance, refresh, and
// login live in the external auth service this app sits behind (§1);
// this middleware only ever reads a token, never mints one.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

const (
	contextUserIDKey    = "mealplanner_user_id"
	contextRequestIDKey = "mealplanner_request_id"
)

type claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RequireAuth decodes the Authorization: Bearer <token> header, verifies
// its HMAC signature against secret, and stashes the resulting UserID
// (plus a request id, generated if the caller didn't send one) in the
// gin context for RequestContext(c) to pick up downstream.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		parsedClaims, ok := token.Claims.(*claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, err := mealplan.ParseUserID(parsedClaims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id in token"})
			return
		}

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextRequestIDKey, requestID)
		c.Next()
	}
}

// UserID retrieves the authenticated caller's UserID, set by RequireAuth.
func UserID(c *gin.Context) mealplan.UserID {
	v, _ := c.Get(contextUserIDKey)
	id, _ := v.(mealplan.UserID)
	return id
}

// RequestID retrieves the per-request id, set by RequireAuth.
func RequestID(c *gin.Context) string {
	v, _ := c.Get(contextRequestIDKey)
	id, _ := v.(string)
	return id
}
