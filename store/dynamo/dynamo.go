package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofrs/uuid/v5"

	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/store"
)

type DynamoHumanGenStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoHumanGenStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoHumanGenStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoHumanGenStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoHumanGenStore) EnsureIdentity(ctx context.Context, identity models.Identity) (models.Identity, bool, error) {
	if identity.Id == "" {
		identityId, err := uuid.NewV4()
		if err != nil {
			return models.Identity{}, false, err
		}
		identity.Id = identityId.String()
	}

	di := identityToDynamo(identity)
	di.Created = time.Now().UnixMilli()
	di, created, err := ensureItem(dynamoStore, ctx, di)
	if err != nil {
		return models.Identity{}, false, err
	}

	return identityFromDynamo(di), created, nil
}

func (dynamoStore *DynamoHumanGenStore) GetIdentity(ctx context.Context, identityId string) (models.Identity, error) {
	di, err := getItem[dynamoIdentity](dynamoStore, ctx, "IDENTITY#"+identityId, "PROFILE", false)
	if err != nil {
		return models.Identity{}, err
	}
	return identityFromDynamo(di), nil
}

// RecordSubmission marks the identity as having submitted on the given day
// and bumps its submission count, atomically and only if it has not already
// submitted that day. A condition failure means the daily quota is spent.
func (dynamoStore *DynamoHumanGenStore) RecordSubmission(ctx context.Context, identityId string, day string) (models.Identity, error) {
	di, err := recordSubmissionDay(dynamoStore, ctx, "IDENTITY#"+identityId, "PROFILE", day)
	if err != nil {
		return models.Identity{}, err
	}
	return identityFromDynamo(di), nil
}

func (dynamoStore *DynamoHumanGenStore) CreateArtwork(ctx context.Context, artwork models.Artwork) (models.Artwork, error) {
	// UUIDv7 so the artwork id carries its creation time and sorts
	// chronologically as a range key.
	artworkUUID, err := uuid.NewV7()
	if err != nil {
		return models.Artwork{}, err
	}
	artwork.Id = artworkUUID.String()

	t, err := getTimeFromUUIDv7(artwork.Id)
	if err != nil {
		return models.Artwork{}, err
	}
	artwork.Created = t.UnixMilli()
	artwork.Likes = 0
	artwork.LikedBy = nil

	da := artworkToDynamo(artwork)
	da, created, err := ensureItem(dynamoStore, ctx, da)
	if err != nil {
		return models.Artwork{}, err
	}
	if !created {
		return models.Artwork{}, fmt.Errorf("artwork id collision: %s", artwork.Id)
	}

	return artworkFromDynamo(da), nil
}

func (dynamoStore *DynamoHumanGenStore) GetArtwork(ctx context.Context, artworkId string) (models.Artwork, error) {
	da, err := getItem[dynamoArtwork](dynamoStore, ctx, "ARTWORK#"+artworkId, "ART", false)
	if err != nil {
		return models.Artwork{}, err
	}
	return artworkFromDynamo(da), nil
}

func (dynamoStore *DynamoHumanGenStore) ListArtworksByPrompt(ctx context.Context, promptText string) ([]models.Artwork, error) {
	dynamoArtworks, err := queryItemsByGSI[dynamoArtwork](dynamoStore, ctx, "GSI_Gallery", "PromptText", promptText)
	if err != nil {
		return nil, err
	}

	artworks := make([]models.Artwork, 0, len(dynamoArtworks))
	for _, da := range dynamoArtworks {
		artworks = append(artworks, artworkFromDynamo(da))
	}
	return artworks, nil
}

const maxToggleAttempts = 3

// ToggleLike flips the identity's membership in the artwork's LikedBy set
// and adjusts Likes in the same conditional write, so concurrent toggles by
// different identities never lose an update. The returned count is read from
// the committed item (ReturnValues ALL_NEW), not computed from the pre-update
// read.
func (dynamoStore *DynamoHumanGenStore) ToggleLike(ctx context.Context, artworkId string, identityId string) (models.LikeResult, error) {
	pk := "ARTWORK#" + artworkId

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		da, err := getItem[dynamoArtwork](dynamoStore, ctx, pk, "ART", true)
		if err != nil {
			return models.LikeResult{}, err
		}

		hasLiked := false
		for _, id := range da.LikedBy {
			if id == identityId {
				hasLiked = true
				break
			}
		}

		updated, err := applyLikeToggle(dynamoStore, ctx, pk, "ART", identityId, hasLiked)
		if err == nil {
			return models.LikeResult{Likes: updated.Likes, Liked: !hasLiked}, nil
		}
		if !errors.Is(err, store.ErrConditionFailed) {
			return models.LikeResult{}, err
		}
		// Membership flipped between the read and the write (the same
		// identity toggled concurrently); re-read and try again.
	}

	return models.LikeResult{}, store.ErrConditionFailed
}

func (dynamoStore *DynamoHumanGenStore) CreatePrompt(ctx context.Context, prompt models.Prompt) (models.Prompt, error) {
	promptUUID, err := uuid.NewV7()
	if err != nil {
		return models.Prompt{}, err
	}
	prompt.Id = promptUUID.String()
	prompt.Created = time.Now().UnixMilli()

	dp := promptToDynamo(prompt)
	dp, _, err = ensureItem(dynamoStore, ctx, dp)
	if err != nil {
		return models.Prompt{}, err
	}

	return promptFromDynamo(dp), nil
}

func (dynamoStore *DynamoHumanGenStore) GetRecentPrompts(ctx context.Context, limit int32) ([]models.Prompt, error) {
	// Prompt ids are UUIDv7, so descending SK order is newest first.
	dynamoPrompts, err := queryAllByPK[dynamoPrompt](dynamoStore, ctx, "PROMPT#DAILY", false, limit)
	if err != nil {
		return nil, err
	}

	prompts := make([]models.Prompt, 0, len(dynamoPrompts))
	for _, dp := range dynamoPrompts {
		prompts = append(prompts, promptFromDynamo(dp))
	}
	return prompts, nil
}

func getTimeFromUUIDv7(id string) (time.Time, error) {
	parsed, err := uuid.FromString(id)
	if err != nil {
		return time.Time{}, err
	}
	if parsed.Version() != uuid.V7 {
		return time.Time{}, errors.New("not a uuidv7")
	}
	ts, err := uuid.TimestampFromV7(parsed)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time()
}
