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

// Package narrator optionally rewrites the deterministic
// assignment_reasoning and reminder body strings into friendlier
// prose. It adapts the teacher's internal/ai.Provider abstraction but
// is strictly a post-processing step: it runs after the scheduler and
// reminder scheduler have already produced their deterministic text,
// never before, and it is never consulted by scoring or selection. A
// Narrator with no provider, or one whose call fails, returns the
// original string unchanged — callers never need a fallback branch of
// their own.
package narrator

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rghsoftware/mealplanner/internal/ai"
)

// Narrator rewrites short deterministic strings for display.
type Narrator struct {
	provider ai.Provider
	log      zerolog.Logger
}

// New builds a Narrator. provider may be nil, in which case every
// Rewrite call is a no-op passthrough.
func New(provider ai.Provider, log zerolog.Logger) *Narrator {
	return &Narrator{provider: provider, log: log}
}

// RewriteReasoning turns an assignment_reasoning string such as
// "Complex → weekend" into a short sentence suitable for display. On
// any error, or when no provider is configured, it returns reasoning
// unchanged.
func (n *Narrator) RewriteReasoning(ctx context.Context, recipeTitle, reasoning string) string {
	if n == nil || n.provider == nil || !n.provider.IsAvailable() || reasoning == "" {
		return reasoning
	}

	prompt := n.buildReasoningPrompt(recipeTitle, reasoning)
	resp, err := n.provider.Generate(ctx, ai.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   80,
		Temperature: 0.5,
		SystemMsg:   "You rewrite short scheduling notes into one friendly sentence for a home cook. Do not invent facts beyond what is given.",
	})
	if err != nil {
		n.log.Warn().Err(err).Str("provider", n.provider.GetName()).Msg("narrator: reasoning rewrite failed, keeping deterministic text")
		return reasoning
	}

	text := cleanNarration(resp.Text)
	if text == "" {
		return reasoning
	}
	return text
}

// RewriteReminderBody rewrites a reminder's deterministic body string
// the same way. Failure-safe in the same manner as RewriteReasoning.
func (n *Narrator) RewriteReminderBody(ctx context.Context, body string) string {
	if n == nil || n.provider == nil || !n.provider.IsAvailable() || body == "" {
		return body
	}

	resp, err := n.provider.Generate(ctx, ai.GenerateRequest{
		Prompt:      "Rewrite this cooking reminder as one short, friendly sentence, keeping every concrete detail (timing, dish name): " + body,
		MaxTokens:   60,
		Temperature: 0.5,
		SystemMsg:   "You rewrite short kitchen reminders for a home cook. Do not invent facts beyond what is given.",
	})
	if err != nil {
		n.log.Warn().Err(err).Str("provider", n.provider.GetName()).Msg("narrator: reminder rewrite failed, keeping deterministic text")
		return body
	}

	text := cleanNarration(resp.Text)
	if text == "" {
		return body
	}
	return text
}

func (n *Narrator) buildReasoningPrompt(recipeTitle, reasoning string) string {
	var b strings.Builder
	b.WriteString("A meal scheduler assigned \"")
	b.WriteString(recipeTitle)
	b.WriteString("\" with this internal note: \"")
	b.WriteString(reasoning)
	b.WriteString("\". Rewrite the note as one short, friendly sentence explaining why this meal lands here.")
	return b.String()
}

// cleanNarration strips the same markdown fencing/whitespace noise a
// chat model tends to wrap a short answer in.
func cleanNarration(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "`")
	text = strings.Trim(text, "\"")
	return strings.TrimSpace(text)
}
