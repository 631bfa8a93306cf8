package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	chatCompletionsURL = "https://api.openai.com/v1/chat/completions"
	model              = "gpt-4"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIGenerator asks the chat API twice: once for the prompt text, once
// for a palette matching it. A bad palette response falls back to the
// defaults rather than failing the day's prompt.
type OpenAIGenerator struct {
	apiKey        string
	httpClient    *http.Client
	defaultColors []string
}

func NewOpenAIGenerator(apiKey string, defaultColors []string) *OpenAIGenerator {
	return &OpenAIGenerator{
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		defaultColors: defaultColors,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context) (string, []string, error) {
	promptText, err := g.chat(ctx, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a creative art prompt generator. Generate a single creative, inspiring, and open-ended prompt for artists to draw. The prompt should be concise (1-2 sentences) and encourage creativity and interpretation. This should be a description of a drawing, and should NOT include the words \"Draw\", \"Create\", etc.",
			},
			{Role: "user", Content: "Generate a creative art prompt."},
		},
		MaxTokens:   100,
		Temperature: 0.8,
	})
	if err != nil {
		return "", nil, fmt.Errorf("prompt generation failed: %w", err)
	}
	promptText = strings.TrimSpace(promptText)

	colorsRaw, err := g.chat(ctx, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a color palette generator. Based on the given prompt, suggest 6 hex colors (excluding black) that would work well for creating artwork matching this prompt. Return ONLY a JSON array of 6 hex color codes.",
			},
			{Role: "user", Content: fmt.Sprintf("Generate 6 hex colors for this art prompt: %q", promptText)},
		},
		MaxTokens:   100,
		Temperature: 0.6,
	})
	if err != nil {
		return "", nil, fmt.Errorf("palette generation failed: %w", err)
	}

	colors, err := parseColors(colorsRaw)
	if err != nil {
		log.Println("Failed to parse palette, using defaults:", err)
		colors = append([]string{}, g.defaultColors...)
	}

	return promptText, colors, nil
}

func (g *OpenAIGenerator) chat(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", chatCompletionsURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func parseColors(raw string) ([]string, error) {
	var colors []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &colors); err != nil {
		return nil, err
	}
	if len(colors) != 6 {
		return nil, fmt.Errorf("expected 6 colors, got %d", len(colors))
	}
	for _, color := range colors {
		if !hexColorRe.MatchString(color) {
			return nil, fmt.Errorf("invalid hex color %q", color)
		}
	}
	return colors, nil
}
