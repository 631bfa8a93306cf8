package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/store"
)

const galleryPrompt = "A lighthouse at dusk"

func galleryArtworks() []models.Artwork {
	return []models.Artwork{
		{Id: "a", PromptText: galleryPrompt, Likes: 1, Created: 100, LikedBy: []string{"viewer1"}},
		{Id: "b", PromptText: galleryPrompt, Likes: 3, Created: 50},
		{Id: "c", PromptText: galleryPrompt, Likes: 3, Created: 80, LikedBy: []string{"fan9"}},
	}
}

func marshalAll(t *testing.T, artworks []models.Artwork) [][]byte {
	out := make([][]byte, 0, len(artworks))
	for _, artwork := range artworks {
		b, err := json.Marshal(artwork)
		assert.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func TestLoadGallery_CacheComplete_Ranking(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()
	galleryKey := cache.GalleryKeyFor(galleryPrompt)

	mockCache.On("GetArtworks", ctx, galleryKey).Return(marshalAll(t, galleryArtworks()), nil)
	mockCache.On("IsGalleryComplete", ctx, galleryKey).Return(true, nil)

	result, err := svc.LoadGallery(ctx, galleryPrompt, "viewer1")

	assert.NoError(t, err)
	assert.Len(t, result, 3)

	// Likes descending, creation time descending as the tiebreak.
	assert.Equal(t, "c", result[0].Id)
	assert.Equal(t, "b", result[1].Id)
	assert.Equal(t, "a", result[2].Id)

	// HasLiked is per viewer; the membership list itself is never exposed.
	assert.True(t, result[2].HasLiked)
	assert.False(t, result[0].HasLiked)
	for _, artwork := range result {
		assert.Nil(t, artwork.LikedBy)
	}

	mockStore.AssertNotCalled(t, "ListArtworksByPrompt", mock.Anything, mock.Anything)
}

func TestLoadGallery_RankingIsDeterministic(t *testing.T) {
	svc, _, mockCache, _, _ := setupService(t)
	ctx := context.Background()
	galleryKey := cache.GalleryKeyFor(galleryPrompt)

	mockCache.On("GetArtworks", ctx, galleryKey).Return(marshalAll(t, galleryArtworks()), nil)
	mockCache.On("IsGalleryComplete", ctx, galleryKey).Return(true, nil)

	first, err := svc.LoadGallery(ctx, galleryPrompt, "")
	assert.NoError(t, err)
	second, err := svc.LoadGallery(ctx, galleryPrompt, "")
	assert.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadGallery_FallbackBackfillsCache(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()
	galleryKey := cache.GalleryKeyFor(galleryPrompt)

	mockCache.On("GetArtworks", ctx, galleryKey).Return([][]byte{}, nil)
	mockCache.On("IsGalleryComplete", ctx, galleryKey).Return(false, nil)
	mockStore.On("ListArtworksByPrompt", ctx, galleryPrompt).Return(galleryArtworks(), nil)
	mockCache.On("AddArtworksBatch", ctx, galleryKey, mock.MatchedBy(func(items []cache.GalleryCacheItem) bool {
		return len(items) == 3
	})).Return(nil)
	mockCache.On("SetGalleryComplete", ctx, galleryKey).Return(nil)

	result, err := svc.LoadGallery(ctx, galleryPrompt, "")

	assert.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, "c", result[0].Id)
	mockCache.AssertCalled(t, "AddArtworksBatch", ctx, galleryKey, mock.Anything)
	mockCache.AssertCalled(t, "SetGalleryComplete", ctx, galleryKey)
}

func TestLoadGallery_EmptyGalleryMarkedComplete(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()
	galleryKey := cache.GalleryKeyFor(galleryPrompt)

	mockCache.On("GetArtworks", ctx, galleryKey).Return([][]byte{}, nil)
	mockCache.On("IsGalleryComplete", ctx, galleryKey).Return(false, nil)
	mockStore.On("ListArtworksByPrompt", ctx, galleryPrompt).Return([]models.Artwork{}, nil)
	mockCache.On("SetGalleryComplete", ctx, galleryKey).Return(nil)

	result, err := svc.LoadGallery(ctx, galleryPrompt, "")

	assert.NoError(t, err)
	assert.Empty(t, result)
	// Mark as complete even if currently empty
	mockCache.AssertCalled(t, "SetGalleryComplete", ctx, galleryKey)
	mockCache.AssertNotCalled(t, "AddArtworksBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetArtwork_ViewerState(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	artwork := models.Artwork{Id: "a", Likes: 2, LikedBy: []string{"viewer1", "fan2"}}
	mockStore.On("GetArtwork", ctx, "a").Return(artwork, nil)

	result, err := svc.GetArtwork(ctx, "a", "viewer1")
	assert.NoError(t, err)
	assert.True(t, result.HasLiked)
	assert.Nil(t, result.LikedBy)

	other, err := svc.GetArtwork(ctx, "a", "someone-else")
	assert.NoError(t, err)
	assert.False(t, other.HasLiked)
}

func TestToggleLike_Success(t *testing.T) {
	svc, mockStore, mockCache, _, rankRefresher := setupService(t)
	ctx := context.Background()

	artwork := models.Artwork{Id: "a", PromptText: galleryPrompt, Likes: 5}
	mockStore.On("GetArtwork", ctx, "a").Return(artwork, nil)
	mockStore.On("ToggleLike", ctx, "a", "viewer1").Return(models.LikeResult{Likes: 6, Liked: true}, nil)
	mockCache.On("UpdateArtworkData", mock.Anything, mock.Anything, "a", mock.Anything).Return(nil)
	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.ToggleLike(ctx, "a", "viewer1")

	assert.NoError(t, err)
	assert.Equal(t, models.LikeResult{Likes: 6, Liked: true}, result)

	// Verify refresher received the dirty prompt
	select {
	case promptText := <-rankRefresher.DirtyCh:
		assert.Equal(t, galleryPrompt, promptText)
	case <-time.After(100 * time.Millisecond):
		assert.Fail(t, "timed out waiting for dirty prompt")
	}
}

func TestToggleLike_ArtworkNotFound(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetArtwork", ctx, "missing").Return(models.Artwork{}, store.ErrItemNotFound)

	_, err := svc.ToggleLike(ctx, "missing", "viewer1")

	assert.ErrorIs(t, err, store.ErrItemNotFound)
	mockStore.AssertNotCalled(t, "ToggleLike", mock.Anything, mock.Anything, mock.Anything)
}
