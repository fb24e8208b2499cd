package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"babel.town/lang"
)

const translationPrompt = `You translate speech transcripts into English.
Reply with the English translation only, without quotes or commentary.
If the text is already English, repeat it unchanged.`

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (o *OpenAI) Translate(ctx context.Context, text string, from string) (string, error) {
	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: translationPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userMessage(text, from),
				},
			},
			Temperature: 0,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return "", ErrEmptyResponse
	}
	return translated, nil
}

func userMessage(text, from string) string {
	if from == lang.Auto {
		return text
	}
	return fmt.Sprintf("Source language: %s\n\n%s", from, text)
}
