package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/theochan/humangen/cache"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Publish(ctx context.Context, channel string, message []byte) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

func (m *MockCache) AddArtwork(ctx context.Context, galleryKey string, artworkId string, score int64, data []byte) error {
	args := m.Called(ctx, galleryKey, artworkId, score, data)
	return args.Error(0)
}

func (m *MockCache) AddArtworksBatch(ctx context.Context, galleryKey string, items []cache.GalleryCacheItem) error {
	args := m.Called(ctx, galleryKey, items)
	return args.Error(0)
}

func (m *MockCache) UpdateArtworkData(ctx context.Context, galleryKey string, artworkId string, data []byte) error {
	args := m.Called(ctx, galleryKey, artworkId, data)
	return args.Error(0)
}

func (m *MockCache) GetArtworks(ctx context.Context, galleryKey string) ([][]byte, error) {
	args := m.Called(ctx, galleryKey)
	return args.Get(0).([][]byte), args.Error(1)
}

func (m *MockCache) SetGalleryComplete(ctx context.Context, galleryKey string) error {
	args := m.Called(ctx, galleryKey)
	return args.Error(0)
}

func (m *MockCache) IsGalleryComplete(ctx context.Context, galleryKey string) (bool, error) {
	args := m.Called(ctx, galleryKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) SeedSubmissionDay(ctx context.Context, identityId string, day string) error {
	args := m.Called(ctx, identityId, day)
	return args.Error(0)
}

func (m *MockCache) SetSubmissionDay(ctx context.Context, identityId string, day string) error {
	args := m.Called(ctx, identityId, day)
	return args.Error(0)
}

func (m *MockCache) GetSubmissionDay(ctx context.Context, identityId string) (string, error) {
	args := m.Called(ctx, identityId)
	return args.String(0), args.Error(1)
}
