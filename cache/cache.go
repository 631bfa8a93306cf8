package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// GalleryKeyFor derives the cache key for a gallery from its prompt text.
// Prompt text is free-form; hashing keeps the Redis key short and safe.
func GalleryKeyFor(promptText string) string {
	sum := sha256.Sum256([]byte(promptText))
	return hex.EncodeToString(sum[:16])
}

type GalleryCacheItem struct {
	ArtworkId string
	Score     int64
	Data      []byte
}

// HumanGenCache is the Redis-backed read path for galleries plus the pubsub
// plane used to fan out like/new-artwork events to websocket subscribers.
type HumanGenCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	AddArtwork(ctx context.Context, galleryKey string, artworkId string, score int64, data []byte) error
	AddArtworksBatch(ctx context.Context, galleryKey string, items []GalleryCacheItem) error
	UpdateArtworkData(ctx context.Context, galleryKey string, artworkId string, data []byte) error
	GetArtworks(ctx context.Context, galleryKey string) ([][]byte, error)

	SetGalleryComplete(ctx context.Context, galleryKey string) error
	IsGalleryComplete(ctx context.Context, galleryKey string) (bool, error)

	SeedSubmissionDay(ctx context.Context, identityId string, day string) error
	SetSubmissionDay(ctx context.Context, identityId string, day string) error
	GetSubmissionDay(ctx context.Context, identityId string) (string, error)
}
