package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/store"
)

// RankRefresher reconciles cached galleries with the store. Like toggles
// push their prompt text here; dirty prompts are deduped and flushed in
// batches, each flush rewriting the gallery's cached entries from the
// authoritative store rows. Rank order itself is computed at read time,
// so a refresh only needs to fix the counts.
type RankRefresher struct {
	DirtyCh            chan string
	humangenStore      store.HumanGenStore
	humangenCache      cache.HumanGenCache
	tickerMilliseconds int
}

func NewRankRefresher(humangenStore store.HumanGenStore, humangenCache cache.HumanGenCache, tickerMilliseconds int) *RankRefresher {
	return &RankRefresher{
		DirtyCh:            make(chan string, 1024),
		humangenStore:      humangenStore,
		humangenCache:      humangenCache,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (r *RankRefresher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(r.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	dirtyPrompts := make(map[string]bool)

	flush := func() {
		for promptText := range dirtyPrompts {
			go func(promptText string) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := r.refreshGallery(ctx, promptText); err != nil {
					log.Printf("Failed to refresh gallery for prompt %q: %v", promptText, err)
				}
			}(promptText)
		}
		dirtyPrompts = make(map[string]bool)
	}

	for {
		select {
		case promptText := <-r.DirtyCh:
			dirtyPrompts[promptText] = true

			if len(dirtyPrompts) >= 100 {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-shutdownCtx.Done():
			flush()
			return
		}
	}
}

func (r *RankRefresher) refreshGallery(ctx context.Context, promptText string) error {
	galleryKey := cache.GalleryKeyFor(promptText)

	// Only refresh galleries that are actually cached; an uncached gallery
	// gets authoritative data on its next load anyway.
	isComplete, err := r.humangenCache.IsGalleryComplete(ctx, galleryKey)
	if err != nil || !isComplete {
		return err
	}

	artworks, err := r.humangenStore.ListArtworksByPrompt(ctx, promptText)
	if err != nil {
		return err
	}

	batchItems := make([]cache.GalleryCacheItem, 0, len(artworks))
	for _, artwork := range artworks {
		artworkBytes, err := json.Marshal(artwork)
		if err != nil {
			continue
		}
		batchItems = append(batchItems, cache.GalleryCacheItem{
			ArtworkId: artwork.Id,
			Score:     artwork.Created,
			Data:      artworkBytes,
		})
	}

	if len(batchItems) == 0 {
		return nil
	}

	return r.humangenCache.AddArtworksBatch(ctx, galleryKey, batchItems)
}
