package store

import (
	"context"
	"errors"

	"github.com/theochan/humangen/models"
)

// ArtworkStore is the gallery side of the document store. ToggleLike is the
// only mutation after creation: a single indivisible read-modify-write keyed
// on the identity's current membership in LikedBy, returning the post-commit
// count rather than a client-computed guess.
type ArtworkStore interface {
	CreateArtwork(ctx context.Context, artwork models.Artwork) (models.Artwork, error)
	GetArtwork(ctx context.Context, artworkId string) (models.Artwork, error)
	ListArtworksByPrompt(ctx context.Context, promptText string) ([]models.Artwork, error)
	ToggleLike(ctx context.Context, artworkId string, identityId string) (models.LikeResult, error)
}

// IdentityStore issues and tracks anonymous identities. RecordSubmission is
// conditional on LastSubmission differing from the given day, so the daily
// gate check and the record update cannot race into a double submission.
type IdentityStore interface {
	EnsureIdentity(ctx context.Context, identity models.Identity) (models.Identity, bool, error)
	GetIdentity(ctx context.Context, identityId string) (models.Identity, error)
	RecordSubmission(ctx context.Context, identityId string, day string) (models.Identity, error)
}

type PromptStore interface {
	CreatePrompt(ctx context.Context, prompt models.Prompt) (models.Prompt, error)
	GetRecentPrompts(ctx context.Context, limit int32) ([]models.Prompt, error)
}

type HumanGenStore interface {
	ArtworkStore
	IdentityStore
	PromptStore
}

// Custom error types for clarity
var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrConditionFailed = errors.New("condition not met")
)
