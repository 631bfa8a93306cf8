package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/promptgen"
	"github.com/theochan/humangen/worker"
)

const fallbackPromptLifetime = 7 * 24 * time.Hour

// ErrNotAdmin is returned when a verified Google account is not on the
// admin allow-list.
var ErrNotAdmin = errors.New("account is not an admin")

// CurrentPrompt returns the prompt whose [StartDate, EndDate) interval
// covers now. When no stored prompt covers the current instant (generation
// failed, never ran, or the store itself is unreachable), a fixed fallback
// prompt is served so the canvas always has a palette.
func (s *Service) CurrentPrompt(ctx context.Context) (models.Prompt, error) {
	now := time.Now()

	prompts, err := s.Store.GetRecentPrompts(ctx, 5)
	if err != nil {
		// Degrade rather than fail: a store blip must not take down the
		// prompt or the submission path.
		log.Printf("Failed to load recent prompts, serving fallback: %v", err)
		return fallbackPrompt(now), nil
	}

	for _, prompt := range prompts {
		if prompt.StartDate <= now.UnixMilli() && now.UnixMilli() < prompt.EndDate {
			return withFallbackColors(prompt), nil
		}
	}

	return fallbackPrompt(now), nil
}

func fallbackPrompt(now time.Time) models.Prompt {
	return models.Prompt{
		Text:      promptgen.DefaultPromptText,
		Colors:    append([]string{}, promptgen.DefaultColors...),
		StartDate: now.UnixMilli(),
		EndDate:   now.Add(fallbackPromptLifetime).UnixMilli(),
	}
}

// PromptHistory lists recent prompts, newest first, for the archive view.
func (s *Service) PromptHistory(ctx context.Context, limit int32) ([]models.Prompt, error) {
	prompts, err := s.Store.GetRecentPrompts(ctx, limit)
	if err != nil {
		return nil, err
	}

	for i := range prompts {
		prompts[i] = withFallbackColors(prompts[i])
	}

	return prompts, nil
}

func withFallbackColors(prompt models.Prompt) models.Prompt {
	if len(prompt.Colors) != 6 {
		prompt.Colors = append([]string{}, promptgen.DefaultColors...)
	}
	return prompt
}

type googleUser struct {
	Email string `json:"email"`
	Sub   string `json:"sub"`
}

const googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// VerifyAdmin resolves the Google access token to an email and checks it
// against the allow-list. Admin actions are the only place accounts exist;
// regular identities stay anonymous.
func (s *Service) VerifyAdmin(ctx context.Context, accessToken string) (string, error) {
	if len(accessToken) == 0 {
		return "", errors.New("access token not provided")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, "GET", googleUserinfoURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Println("Error:", err)
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var g googleUser
	if err := json.Unmarshal(body, &g); err != nil {
		return "", err
	}

	if !s.AdminEmails[g.Email] {
		return "", ErrNotAdmin
	}

	return g.Email, nil
}

// RequestPromptRegeneration queues a manual regeneration after verifying the
// caller is an admin. The queue consumer does the actual generation, so the
// HTTP request returns as soon as the message is accepted.
func (s *Service) RequestPromptRegeneration(ctx context.Context, accessToken string) error {
	email, err := s.VerifyAdmin(ctx, accessToken)
	if err != nil {
		return err
	}

	msg := worker.RegeneratePromptMessage{
		RequestedBy: email,
		RequestedAt: time.Now().UnixMilli(),
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.MQ.Send(ctx, string(msgBytes))
}
