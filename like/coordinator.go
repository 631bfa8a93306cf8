package like

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/store"
)

// ErrTogglePending is returned when a toggle for the same artwork and
// identity is already in flight. Duplicate taps are dropped, not queued;
// the caller's first request will settle the state either way.
var ErrTogglePending = errors.New("like toggle already in flight")

type UpdateMessage struct {
	Type string     `json:"type"`
	Data UpdateData `json:"data"`
}

type UpdateData struct {
	ArtworkId  string `json:"artworkId"`
	GalleryKey string `json:"galleryKey"`
	Likes      int    `json:"likes"`
	Liked      bool   `json:"liked"`
	// Final is false for the optimistic broadcast, true once the count is
	// the store's post-commit value (or a rollback to the prior one).
	Final bool `json:"final"`
}

// Coordinator wraps the store's atomic toggle with the optimistic-update
// protocol: the cached gallery entry and subscribers see the guessed count
// immediately, then either the authoritative post-commit state or an exact
// revert of the guess.
type Coordinator struct {
	store   store.ArtworkStore
	cache   cache.HumanGenCache
	dirtyCh chan<- string // prompt texts whose galleries need a refresh; may be nil

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewCoordinator(artworkStore store.ArtworkStore, humangenCache cache.HumanGenCache, dirtyCh chan<- string) *Coordinator {
	return &Coordinator{
		store:    artworkStore,
		cache:    humangenCache,
		dirtyCh:  dirtyCh,
		inflight: make(map[string]struct{}),
	}
}

// Toggle flips the identity's like on the artwork. The artwork argument is
// the caller's current view; its Likes/LikedBy seed the optimistic guess.
// Exactly one store request is issued per accepted call.
func (c *Coordinator) Toggle(ctx context.Context, artwork models.Artwork, identityId string) (models.LikeResult, error) {
	key := artwork.Id + "#" + identityId

	c.mu.Lock()
	if _, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return models.LikeResult{}, ErrTogglePending
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	settle := func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}

	galleryKey := cache.GalleryKeyFor(artwork.PromptText)

	hasLiked := false
	for _, id := range artwork.LikedBy {
		if id == identityId {
			hasLiked = true
			break
		}
	}

	// Optimistic phase: apply the guess locally before the store confirms.
	// This is a responsiveness contract, not a correctness one; the store's
	// answer below overrides it.
	guess := guessToggle(artwork, identityId, hasLiked)
	c.applyLocal(ctx, galleryKey, guess, models.LikeResult{Likes: guess.Likes, Liked: !hasLiked}, false)

	result, err := c.store.ToggleLike(ctx, artwork.Id, identityId)
	if err != nil {
		// Rollback: revert the optimistic flip exactly. No automatic retry.
		prior := models.LikeResult{Likes: artwork.Likes, Liked: hasLiked}
		c.applyLocal(ctx, galleryKey, artwork, prior, true)
		settle()
		return models.LikeResult{}, err
	}

	// Reconcile to the authoritative post-commit state. The count may differ
	// from the guess when other identities toggled concurrently.
	reconciled := artwork
	reconciled.Likes = result.Likes
	reconciled.LikedBy = adjustMembership(artwork.LikedBy, identityId, result.Liked)
	c.applyLocal(ctx, galleryKey, reconciled, result, true)

	if c.dirtyCh != nil {
		select {
		case c.dirtyCh <- artwork.PromptText:
		default:
			// Refresher backlog is full; the periodic flush will catch up.
		}
	}

	settle()
	return result, nil
}

// applyLocal rewrites the cached gallery entry and broadcasts the update.
// Cache failures are logged, never surfaced: the store remains the source
// of truth and the next gallery load backfills.
func (c *Coordinator) applyLocal(ctx context.Context, galleryKey string, artwork models.Artwork, result models.LikeResult, final bool) {
	artwork.HasLiked = false
	data, err := json.Marshal(artwork)
	if err == nil {
		if err := c.cache.UpdateArtworkData(ctx, galleryKey, artwork.Id, data); err != nil {
			log.Printf("Failed to update cached artwork %s: %v", artwork.Id, err)
		}
	}

	msg := UpdateMessage{
		Type: "like_update",
		Data: UpdateData{
			ArtworkId:  artwork.Id,
			GalleryKey: galleryKey,
			Likes:      result.Likes,
			Liked:      result.Liked,
			Final:      final,
		},
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.cache.Publish(ctx, "gallery:"+galleryKey, msgBytes); err != nil {
		log.Printf("Failed to publish like update for artwork %s: %v", artwork.Id, err)
	}
}

func guessToggle(artwork models.Artwork, identityId string, hasLiked bool) models.Artwork {
	guess := artwork
	if hasLiked {
		guess.Likes = artwork.Likes - 1
	} else {
		guess.Likes = artwork.Likes + 1
	}
	guess.LikedBy = adjustMembership(artwork.LikedBy, identityId, !hasLiked)
	return guess
}

func adjustMembership(likedBy []string, identityId string, member bool) []string {
	out := make([]string, 0, len(likedBy)+1)
	for _, id := range likedBy {
		if id != identityId {
			out = append(out, id)
		}
	}
	if member {
		out = append(out, identityId)
	}
	return out
}
