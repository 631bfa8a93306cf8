package worker

import (
	"context"
	"log"
	"time"

	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/promptgen"
	"github.com/theochan/humangen/store"
)

// PromptScheduler generates the daily prompt at midnight in the schedule
// time zone. Each prompt covers [generation time, next midnight), so a
// manually regenerated prompt naturally expires with the day.
type PromptScheduler struct {
	humangenStore store.HumanGenStore
	generator     promptgen.Generator
	location      *time.Location
}

func NewPromptScheduler(humangenStore store.HumanGenStore, generator promptgen.Generator, location *time.Location) *PromptScheduler {
	return &PromptScheduler{
		humangenStore: humangenStore,
		generator:     generator,
		location:      location,
	}
}

func (p *PromptScheduler) Run(shutdownCtx context.Context) {
	// Catch-up on startup: if no stored prompt covers now (first boot, or
	// the process was down at midnight), generate one for the rest of today.
	if !p.hasCurrentPrompt(shutdownCtx) {
		if _, err := p.GeneratePrompt(shutdownCtx, time.Now()); err != nil {
			log.Printf("Startup prompt generation failed: %v", err)
		}
	}

	for {
		now := time.Now()
		timer := time.NewTimer(p.nextMidnight(now).Sub(now))

		select {
		case fireTime := <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			prompt, err := p.GeneratePrompt(ctx, fireTime)
			cancel()
			if err != nil {
				log.Printf("Daily prompt generation failed: %v", err)
				// The fallback prompt covers the gap until the next run.
				continue
			}
			log.Printf("Daily prompt generated: %q", prompt.Text)

		case <-shutdownCtx.Done():
			timer.Stop()
			return
		}
	}
}

// GeneratePrompt asks the generator for a prompt and palette and stores it
// with a validity window ending at the next midnight.
func (p *PromptScheduler) GeneratePrompt(ctx context.Context, now time.Time) (models.Prompt, error) {
	text, colors, err := p.generator.Generate(ctx)
	if err != nil {
		return models.Prompt{}, err
	}

	prompt, err := p.humangenStore.CreatePrompt(ctx, models.Prompt{
		Text:      text,
		Colors:    colors,
		StartDate: now.UnixMilli(),
		EndDate:   p.nextMidnight(now).UnixMilli(),
	})
	if err != nil {
		return models.Prompt{}, err
	}

	return prompt, nil
}

func (p *PromptScheduler) hasCurrentPrompt(ctx context.Context) bool {
	prompts, err := p.humangenStore.GetRecentPrompts(ctx, 5)
	if err != nil {
		// Assume one exists; better to miss the catch-up than to double up
		// on a transient store error.
		return true
	}

	now := time.Now().UnixMilli()
	for _, prompt := range prompts {
		if prompt.StartDate <= now && now < prompt.EndDate {
			return true
		}
	}
	return false
}

func (p *PromptScheduler) nextMidnight(t time.Time) time.Time {
	local := t.In(p.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.location)
	return midnight.AddDate(0, 0, 1)
}
