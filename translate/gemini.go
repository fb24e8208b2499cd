package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  setupGenerativeModel(client, model),
	}, nil
}

func setupGenerativeModel(client *genai.Client, name string) *genai.GenerativeModel {
	model := client.GenerativeModel(name)
	model.GenerationConfig.SetTemperature(0)
	model.GenerationConfig.SetMaxOutputTokens(1024)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(translationPrompt),
		},
	}
	return model
}

func (g *Gemini) Translate(ctx context.Context, text string, from string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(userMessage(text, from)))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}

	translated := strings.TrimSpace(sb.String())
	if translated == "" {
		return "", ErrEmptyResponse
	}
	return translated, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
