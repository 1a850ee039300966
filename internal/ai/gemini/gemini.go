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

// Package gemini talks to Google's Generative AI API as an ai.Provider.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/rghsoftware/mealplanner/internal/ai"
	"google.golang.org/api/option"
)

// Provider implements ai.Provider against Google's hosted Gemini models.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider builds a Gemini provider for the given model.
func NewProvider(ctx context.Context, apiKey, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		model:  model,
	}, nil
}

// Close releases the underlying Gemini client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate sends a single prompt and returns the rewritten text.
func (p *Provider) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	model := p.client.GenerativeModel(p.model)

	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		model.Temperature = &temp
	}

	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		model.MaxOutputTokens = &maxTokens
	}

	prompt := req.Prompt
	if req.SystemMsg != "" {
		prompt = req.SystemMsg + "\n\n" + prompt
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated")
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	return &ai.GenerateResponse{
		Text:         text,
		FinishReason: string(resp.Candidates[0].FinishReason),
	}, nil
}

// GetName returns the provider name.
func (p *Provider) GetName() string {
	return "gemini"
}

// IsAvailable reports whether the client was constructed.
func (p *Provider) IsAvailable() bool {
	return p.client != nil
}
