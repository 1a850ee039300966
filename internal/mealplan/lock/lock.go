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

// Package lock implements the C10 per-user generation lock: a single
// exclusive token per user_id, held for the duration of Generate*/
// Regenerate, failing fast with no queueing when already held.
package lock

import (
	"sync"

	"github.com/rghsoftware/mealplanner/internal/mealplan"
)

// Manager is an in-process MVP implementation of the §5 lock. The API
// boundary — TryAcquire(user_id) returning a release func — is
// deliberately narrow so a distributed lease (a row in the store, a
// Redis key) can replace it without any change to the command handlers
// that depend on it.
type Manager struct {
	mu   sync.Mutex
	held map[mealplan.UserID]struct{}
}

func NewManager() *Manager {
	return &Manager{held: make(map[mealplan.UserID]struct{})}
}

// TryAcquire attempts to take the lock for userID. On success it
// returns a release function that must be called exactly once; on
// failure it returns ok=false with no queueing, per §5.
func (m *Manager) TryAcquire(userID mealplan.UserID) (release func(), ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.held[userID]; held {
		return nil, false
	}
	m.held[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, userID)
			m.mu.Unlock()
		})
	}, true
}
