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

package ai

import (
	"context"
	"fmt"

	"github.com/rghsoftware/mealplanner/internal/ai/claude"
	"github.com/rghsoftware/mealplanner/internal/ai/gemini"
	"github.com/rghsoftware/mealplanner/internal/ai/ollama"
	"github.com/rghsoftware/mealplanner/internal/ai/openai"
	"github.com/rghsoftware/mealplanner/internal/config"
)

// NewProvider builds the single Provider cmd/server wires into the
// narrator, chosen by cfg.AI.DefaultProvider. Only one provider is ever
// live at a time — there is no runtime fallback or multi-provider
// fan-out, so an unenabled default is a startup-time configuration
// error rather than something to route around.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.AI.DefaultProvider {
	case "ollama":
		if cfg.AI.Ollama.Enabled {
			return ollama.NewProvider(cfg.AI.Ollama.Host, cfg.AI.Ollama.Model), nil
		}
		return nil, fmt.Errorf("ollama is not enabled")

	case "openai":
		if cfg.AI.OpenAI.Enabled {
			return openai.NewProvider(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model), nil
		}
		return nil, fmt.Errorf("openai is not enabled")

	case "gemini":
		if cfg.AI.Gemini.Enabled {
			return gemini.NewProvider(ctx, cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model)
		}
		return nil, fmt.Errorf("gemini is not enabled")

	case "claude":
		if cfg.AI.Claude.Enabled {
			return claude.NewProvider(cfg.AI.Claude.APIKey, cfg.AI.Claude.Model), nil
		}
		return nil, fmt.Errorf("claude is not enabled")

	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.AI.DefaultProvider)
	}
}
