package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/theochan/humangen/models"
	promptgenmocks "github.com/theochan/humangen/promptgen/mocks"
	storemocks "github.com/theochan/humangen/store/mocks"
)

func TestGeneratePrompt_ValidityWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	mockStore := new(storemocks.MockStore)
	mockGenerator := new(promptgenmocks.MockGenerator)
	scheduler := NewPromptScheduler(mockStore, mockGenerator, loc)

	colors := []string{"#111111", "#222222", "#333333", "#444444", "#555555", "#666666"}
	mockGenerator.On("Generate", mock.Anything).Return("A forest made of glass", colors, nil)

	now := time.Date(2026, 8, 29, 15, 30, 0, 0, loc)
	mockStore.On("CreatePrompt", mock.Anything, mock.MatchedBy(func(p models.Prompt) bool {
		start := time.UnixMilli(p.StartDate).In(loc)
		end := time.UnixMilli(p.EndDate).In(loc)
		return p.Text == "A forest made of glass" &&
			start.Equal(now) &&
			end.Hour() == 0 && end.Minute() == 0 &&
			end.Day() == 30
	})).Return(models.Prompt{Id: "p1", Text: "A forest made of glass", Colors: colors}, nil)

	prompt, err := scheduler.GeneratePrompt(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, "p1", prompt.Id)
	mockStore.AssertExpectations(t)
}

func TestGeneratePrompt_MidnightRun(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	mockStore := new(storemocks.MockStore)
	mockGenerator := new(promptgenmocks.MockGenerator)
	scheduler := NewPromptScheduler(mockStore, mockGenerator, loc)

	colors := []string{"#111111", "#222222", "#333333", "#444444", "#555555", "#666666"}
	mockGenerator.On("Generate", mock.Anything).Return("Midnight prompt", colors, nil)

	// Fired exactly at midnight: the window is the full day.
	midnight := time.Date(2026, 8, 30, 0, 0, 0, 0, loc)
	mockStore.On("CreatePrompt", mock.Anything, mock.MatchedBy(func(p models.Prompt) bool {
		return time.UnixMilli(p.EndDate).Sub(time.UnixMilli(p.StartDate)) == 24*time.Hour
	})).Return(models.Prompt{Id: "p2"}, nil)

	_, err = scheduler.GeneratePrompt(context.Background(), midnight)
	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}
