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

package postgres

import "time"

// timeValue is a scratch scan destination for pgx rows where the field
// name (date, startDate, endDate, ...) is more readable than a bare
// time.Time local, making multi-column Scan calls easier to line up.
type timeValue struct{ t time.Time }

func timeFromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }
