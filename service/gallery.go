package service

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/models"
)

// sortByRank orders artworks by likes descending, then creation time
// descending. The sort is stable, so equal artworks keep their relative
// order and repeated calls over the same input produce the same slice.
func sortByRank(artworks []models.Artwork) {
	sort.SliceStable(artworks, func(i, j int) bool {
		if artworks[i].Likes != artworks[j].Likes {
			return artworks[i].Likes > artworks[j].Likes
		}
		return artworks[i].Created > artworks[j].Created
	})
}

// publicView strips the LikedBy membership list; callers only see their own
// liked state via HasLiked.
func publicView(artwork models.Artwork) models.Artwork {
	artwork.LikedBy = nil
	return artwork
}

func viewFor(artwork models.Artwork, viewerId string) models.Artwork {
	for _, id := range artwork.LikedBy {
		if id == viewerId {
			artwork.HasLiked = true
			break
		}
	}
	return publicView(artwork)
}

// LoadGallery returns the ranked artworks for a prompt, cache-first with a
// store fallback that backfills the cache. Ranking is computed here on every
// read; the cache index only orders by creation time.
func (s *Service) LoadGallery(ctx context.Context, promptText string, viewerId string) ([]models.Artwork, error) {
	galleryKey := cache.GalleryKeyFor(promptText)

	cachedRaw, err := s.Cache.GetArtworks(ctx, galleryKey)
	cachedArtworks := []models.Artwork{}
	if err == nil {
		for _, b := range cachedRaw {
			var artwork models.Artwork
			if err := json.Unmarshal(b, &artwork); err == nil {
				cachedArtworks = append(cachedArtworks, artwork)
			}
		}
	}

	isComplete, _ := s.Cache.IsGalleryComplete(ctx, galleryKey)
	if isComplete && err == nil {
		return rankedViews(cachedArtworks, viewerId), nil
	}

	// Fallback to the store and backfill
	dbArtworks, err := s.Store.ListArtworksByPrompt(ctx, promptText)
	if err != nil {
		return nil, err
	}

	batchItems := make([]cache.GalleryCacheItem, 0, len(dbArtworks))
	for _, artwork := range dbArtworks {
		artworkBytes, _ := json.Marshal(artwork)
		batchItems = append(batchItems, cache.GalleryCacheItem{
			ArtworkId: artwork.Id,
			Score:     artwork.Created,
			Data:      artworkBytes,
		})
	}

	if len(batchItems) > 0 {
		s.Cache.AddArtworksBatch(ctx, galleryKey, batchItems)
	}
	// Mark as complete even if currently empty
	s.Cache.SetGalleryComplete(ctx, galleryKey)

	return rankedViews(dbArtworks, viewerId), nil
}

func rankedViews(artworks []models.Artwork, viewerId string) []models.Artwork {
	views := make([]models.Artwork, 0, len(artworks))
	for _, artwork := range artworks {
		views = append(views, viewFor(artwork, viewerId))
	}
	sortByRank(views)
	return views
}

func (s *Service) GetArtwork(ctx context.Context, artworkId string, viewerId string) (models.Artwork, error) {
	artwork, err := s.Store.GetArtwork(ctx, artworkId)
	if err != nil {
		return models.Artwork{}, err
	}
	return viewFor(artwork, viewerId), nil
}

// ToggleLike flips the viewer's like through the coordinator. The fresh
// store read both confirms the artwork exists and seeds the optimistic
// guess with current state.
func (s *Service) ToggleLike(ctx context.Context, artworkId string, identityId string) (models.LikeResult, error) {
	artwork, err := s.Store.GetArtwork(ctx, artworkId)
	if err != nil {
		return models.LikeResult{}, err
	}

	return s.LikeCoord.Toggle(ctx, artwork, identityId)
}
