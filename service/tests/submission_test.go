package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	cachemocks "github.com/theochan/humangen/cache/mocks"
	"github.com/theochan/humangen/like"
	"github.com/theochan/humangen/models"
	mqmocks "github.com/theochan/humangen/mq/mocks"
	"github.com/theochan/humangen/service"
	"github.com/theochan/humangen/store"
	storemocks "github.com/theochan/humangen/store/mocks"
	"github.com/theochan/humangen/worker"
)

// Helper to setup the service with mocks
func setupService(t *testing.T) (*service.Service, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMQ, *worker.RankRefresher) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	// Real refresher is used; tests verify items are pushed to its channel
	rankRefresher := worker.NewRankRefresher(mockStore, mockCache, 60000)
	likeCoord := like.NewCoordinator(mockStore, mockCache, rankRefresher.DirtyCh)

	svc, err := service.NewService(
		mockStore,
		mockCache,
		mockMQ,
		likeCoord,
		rankRefresher,
		nil,
		[]byte("secret"),
		[]string{"admin@example.com"},
	)
	assert.NoError(t, err)

	return svc, mockStore, mockCache, mockMQ, rankRefresher
}

// Helper that creates a channel and wraps a mock call to signal when it's called
func wrapMockWithSignal(call *mock.Call) chan struct{} {
	done := make(chan struct{})
	call.Run(func(args mock.Arguments) {
		close(done)
	})
	return done
}

func waitFor(t *testing.T, done chan struct{}, name string) {
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for "+name)
	}
}

func activePrompt() models.Prompt {
	now := time.Now()
	return models.Prompt{
		Id:        "prompt1",
		Text:      "A lighthouse at dusk",
		Colors:    []string{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF", "#00FFFF"},
		StartDate: now.Add(-time.Hour).UnixMilli(),
		EndDate:   now.Add(time.Hour).UnixMilli(),
	}
}

func validStrokes() []models.Stroke {
	return []models.Stroke{
		{
			Points: []models.StrokePoint{{X: 10, Y: 10, Pressure: 0.5}, {X: 80, Y: 90, Pressure: 0.5}},
			Size:   10,
			Color:  "#FF0000",
		},
	}
}

func TestCanSubmit_DateBoundary(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	identity := models.Identity{Id: "id1", LastSubmission: "2026-08-28"}

	// Just before midnight on the submission day: gate closed.
	beforeMidnight := time.Date(2026, 8, 28, 23, 59, 59, 0, loc)
	assert.False(t, service.CanSubmit(identity, beforeMidnight))

	// Midnight crossed: gate re-opens with no state change anywhere.
	afterMidnight := time.Date(2026, 8, 29, 0, 0, 0, 0, loc)
	assert.True(t, service.CanSubmit(identity, afterMidnight))

	// Never submitted: always open.
	assert.True(t, service.CanSubmit(models.Identity{Id: "id2"}, beforeMidnight))
}

func TestCanSubmit_UsesReferenceZone(t *testing.T) {
	// 03:00 UTC on Aug 29 is still Aug 28 in New York.
	identity := models.Identity{Id: "id1", LastSubmission: "2026-08-28"}
	utcEvening := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	assert.False(t, service.CanSubmit(identity, utcEvening))
}

func TestCanSubmitToday_CacheHit(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	today := service.CurrentDay(time.Now())
	mockCache.On("GetSubmissionDay", ctx, "id1").Return(today, nil)

	canSubmit, err := svc.CanSubmitToday(ctx, "id1")

	assert.NoError(t, err)
	assert.False(t, canSubmit)
	mockStore.AssertNotCalled(t, "GetIdentity", mock.Anything, mock.Anything)
}

func TestCanSubmitToday_CacheMissSeedsAndFallsBack(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	identity := models.Identity{Id: "id1", LastSubmission: "2020-01-01"}
	mockCache.On("GetSubmissionDay", ctx, "id1").Return("", nil)
	mockStore.On("GetIdentity", ctx, "id1").Return(identity, nil)
	mockCache.On("SeedSubmissionDay", ctx, "id1", "2020-01-01").Return(nil)

	canSubmit, err := svc.CanSubmitToday(ctx, "id1")

	assert.NoError(t, err)
	assert.True(t, canSubmit)
	mockCache.AssertCalled(t, "SeedSubmissionDay", ctx, "id1", "2020-01-01")
}

func TestSubmitArtwork_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	prompt := activePrompt()
	today := service.CurrentDay(time.Now())
	identity := models.Identity{Id: "id1", LastSubmission: today, SubmissionCount: 1}

	mockStore.On("GetRecentPrompts", ctx, int32(5)).Return([]models.Prompt{prompt}, nil)
	mockStore.On("RecordSubmission", ctx, "id1", today).Return(identity, nil)

	created := models.Artwork{
		Id:         "art1",
		AuthorId:   "id1",
		PromptId:   prompt.Id,
		PromptText: prompt.Text,
		Created:    time.Now().UnixMilli(),
	}
	mockStore.On("CreateArtwork", ctx, mock.MatchedBy(func(a models.Artwork) bool {
		return a.AuthorId == "id1" && a.PromptText == prompt.Text && len(a.ImageData) > 0
	})).Return(created, nil)

	// Async side effects - use channels for synchronization
	setDayDone := wrapMockWithSignal(mockCache.On("SetSubmissionDay", mock.Anything, "id1", today).Return(nil))
	addDone := wrapMockWithSignal(mockCache.On("AddArtwork", mock.Anything, mock.Anything, "art1", mock.Anything, mock.Anything).Return(nil))
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil))

	artwork, err := svc.SubmitArtwork(ctx, service.SubmitParams{
		IdentityId: "id1",
		Width:      400,
		Height:     400,
		Strokes:    validStrokes(),
	})

	assert.NoError(t, err)
	assert.Equal(t, "art1", artwork.Id)

	waitFor(t, setDayDone, "SetSubmissionDay")
	waitFor(t, addDone, "AddArtwork")
	waitFor(t, publishDone, "Publish")
}

func TestSubmitArtwork_QuotaExceeded(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	prompt := activePrompt()
	today := service.CurrentDay(time.Now())

	mockStore.On("GetRecentPrompts", ctx, int32(5)).Return([]models.Prompt{prompt}, nil)
	mockStore.On("RecordSubmission", ctx, "id1", today).Return(models.Identity{}, store.ErrConditionFailed)

	_, err := svc.SubmitArtwork(ctx, service.SubmitParams{
		IdentityId: "id1",
		Width:      400,
		Height:     400,
		Strokes:    validStrokes(),
	})

	assert.ErrorIs(t, err, service.ErrQuotaExceeded)
	mockStore.AssertNotCalled(t, "CreateArtwork", mock.Anything, mock.Anything)
}

func TestSubmitArtwork_PaletteViolation(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetRecentPrompts", ctx, int32(5)).Return([]models.Prompt{activePrompt()}, nil)

	strokes := validStrokes()
	strokes[0].Color = "#123456" // not in the palette, not black

	_, err := svc.SubmitArtwork(ctx, service.SubmitParams{
		IdentityId: "id1",
		Width:      400,
		Height:     400,
		Strokes:    strokes,
	})

	assert.Error(t, err)
	// Validation failures must not burn the day's submission slot.
	mockStore.AssertNotCalled(t, "RecordSubmission", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitArtwork_BlackAlwaysAllowed(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	prompt := activePrompt()
	today := service.CurrentDay(time.Now())

	mockStore.On("GetRecentPrompts", ctx, int32(5)).Return([]models.Prompt{prompt}, nil)
	mockStore.On("RecordSubmission", ctx, "id1", today).Return(models.Identity{Id: "id1"}, nil)
	mockStore.On("CreateArtwork", ctx, mock.Anything).Return(models.Artwork{Id: "art1", PromptText: prompt.Text}, nil)

	mockCache.On("SetSubmissionDay", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockCache.On("AddArtwork", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil))

	strokes := validStrokes()
	strokes[0].Color = "#000000"

	_, err := svc.SubmitArtwork(ctx, service.SubmitParams{
		IdentityId: "id1",
		Width:      400,
		Height:     400,
		Strokes:    strokes,
	})

	assert.NoError(t, err)
	waitFor(t, publishDone, "Publish")
}
