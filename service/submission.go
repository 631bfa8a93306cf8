package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/canvas"
	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/store"
)

// All day math runs in the reference time zone; "one submission per day"
// means per calendar day in New York, matching the prompt schedule.
var referenceLocation = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// CurrentDay formats the instant as a calendar date in the reference zone.
func CurrentDay(t time.Time) string {
	return t.In(referenceLocation).Format("2006-01-02")
}

// CanSubmit reports whether the identity may submit at the given instant.
// Pure date comparison; crossing midnight re-opens the gate with no state
// change anywhere.
func CanSubmit(identity models.Identity, now time.Time) bool {
	return identity.LastSubmission != CurrentDay(now)
}

// CanSubmitToday answers the gate question for the UI, cache-first. The
// answer is advisory: SubmitArtwork re-checks atomically in the store.
func (s *Service) CanSubmitToday(ctx context.Context, identityId string) (bool, error) {
	today := CurrentDay(time.Now())

	day, err := s.Cache.GetSubmissionDay(ctx, identityId)
	if err == nil && day != "" {
		return day != today, nil
	}

	identity, err := s.Store.GetIdentity(ctx, identityId)
	if err != nil {
		return false, err
	}

	if identity.LastSubmission != "" {
		s.Cache.SeedSubmissionDay(ctx, identityId, identity.LastSubmission)
	}

	return CanSubmit(identity, time.Now()), nil
}

type SubmitParams struct {
	IdentityId string
	Width      int
	Height     int
	Strokes    []models.Stroke
}

type NewArtworkMessage struct {
	Type string         `json:"type"`
	Data NewArtworkData `json:"data"`
}

type NewArtworkData struct {
	GalleryKey string         `json:"galleryKey"`
	Artwork    models.Artwork `json:"artwork"`
}

// SubmitArtwork validates the drawing against the active palette, claims
// the identity's slot for today, renders the strokes to PNG and stores the
// artwork. The store-side conditional update is what actually enforces the
// daily gate; everything before it is fail-fast.
func (s *Service) SubmitArtwork(ctx context.Context, params SubmitParams) (models.Artwork, error) {
	prompt, err := s.CurrentPrompt(ctx)
	if err != nil {
		return models.Artwork{}, err
	}

	if err := ValidateCanvasSize(params.Width, params.Height); err != nil {
		return models.Artwork{}, err
	}
	if err := ValidateStrokes(params.Strokes, prompt.Colors); err != nil {
		return models.Artwork{}, err
	}

	day := CurrentDay(time.Now())
	identity, err := s.Store.RecordSubmission(ctx, params.IdentityId, day)
	if err != nil {
		if err == store.ErrConditionFailed {
			return models.Artwork{}, ErrQuotaExceeded
		}
		return models.Artwork{}, err
	}

	imageData, err := canvas.RenderStrokes(params.Width, params.Height, params.Strokes)
	if err != nil {
		// The slot for today is already claimed. Rendering is deterministic,
		// so a failure here is a server bug, not a retryable client error.
		log.Printf("Failed to render artwork for identity %s: %v", identity.Id, err)
		return models.Artwork{}, err
	}

	artwork, err := s.Store.CreateArtwork(ctx, models.Artwork{
		AuthorId:   params.IdentityId,
		PromptId:   prompt.Id,
		PromptText: prompt.Text,
		ImageData:  imageData,
	})
	if err != nil {
		return models.Artwork{}, err
	}

	// Async side-effects - return to caller as soon as the store write is done
	go func() {
		s.Cache.SetSubmissionDay(context.Background(), params.IdentityId, day)

		galleryKey := cache.GalleryKeyFor(prompt.Text)
		cached := artwork
		cached.HasLiked = false
		if artworkBytes, err := json.Marshal(cached); err == nil {
			s.Cache.AddArtwork(context.Background(), galleryKey, artwork.Id, artwork.Created, artworkBytes)
		}

		msg := NewArtworkMessage{
			Type: "new_artwork",
			Data: NewArtworkData{
				GalleryKey: galleryKey,
				Artwork:    publicView(artwork),
			},
		}
		if msgBytes, err := json.Marshal(msg); err == nil {
			s.Cache.Publish(context.Background(), "gallery:"+galleryKey, msgBytes)
		}
	}()

	return artwork, nil
}
