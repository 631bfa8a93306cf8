package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/theochan/humangen/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateArtwork(ctx context.Context, artwork models.Artwork) (models.Artwork, error) {
	args := m.Called(ctx, artwork)
	return args.Get(0).(models.Artwork), args.Error(1)
}

func (m *MockStore) GetArtwork(ctx context.Context, artworkId string) (models.Artwork, error) {
	args := m.Called(ctx, artworkId)
	return args.Get(0).(models.Artwork), args.Error(1)
}

func (m *MockStore) ListArtworksByPrompt(ctx context.Context, promptText string) ([]models.Artwork, error) {
	args := m.Called(ctx, promptText)
	return args.Get(0).([]models.Artwork), args.Error(1)
}

func (m *MockStore) ToggleLike(ctx context.Context, artworkId string, identityId string) (models.LikeResult, error) {
	args := m.Called(ctx, artworkId, identityId)
	return args.Get(0).(models.LikeResult), args.Error(1)
}

func (m *MockStore) EnsureIdentity(ctx context.Context, identity models.Identity) (models.Identity, bool, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).(models.Identity), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetIdentity(ctx context.Context, identityId string) (models.Identity, error) {
	args := m.Called(ctx, identityId)
	return args.Get(0).(models.Identity), args.Error(1)
}

func (m *MockStore) RecordSubmission(ctx context.Context, identityId string, day string) (models.Identity, error) {
	args := m.Called(ctx, identityId, day)
	return args.Get(0).(models.Identity), args.Error(1)
}

func (m *MockStore) CreatePrompt(ctx context.Context, prompt models.Prompt) (models.Prompt, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0).(models.Prompt), args.Error(1)
}

func (m *MockStore) GetRecentPrompts(ctx context.Context, limit int32) ([]models.Prompt, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Prompt), args.Error(1)
}
