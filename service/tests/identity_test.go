package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/store"
)

func TestEnsureIdentity_NewVisitor(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	created := models.Identity{Id: "id1", Created: 1234}
	mockStore.On("EnsureIdentity", ctx, models.Identity{}).Return(created, true, nil)

	identity, token, err := svc.EnsureIdentity(ctx, "")

	assert.NoError(t, err)
	assert.Equal(t, "id1", identity.Id)
	assert.NotEmpty(t, token)

	// The minted token round-trips to the same identity id.
	id, err := svc.VerifyJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, "id1", id)
}

func TestEnsureIdentity_ReusesValidToken(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	token, err := svc.CreateJWT("id1")
	assert.NoError(t, err)

	mockStore.On("GetIdentity", ctx, "id1").Return(models.Identity{Id: "id1"}, nil)

	identity, returnedToken, err := svc.EnsureIdentity(ctx, token)

	assert.NoError(t, err)
	assert.Equal(t, "id1", identity.Id)
	assert.Equal(t, token, returnedToken)
	mockStore.AssertNotCalled(t, "EnsureIdentity", mock.Anything, mock.Anything)
}

func TestEnsureIdentity_UnknownIdGetsFreshIdentity(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	token, err := svc.CreateJWT("id1")
	assert.NoError(t, err)

	mockStore.On("GetIdentity", ctx, "id1").Return(models.Identity{}, store.ErrItemNotFound)
	mockStore.On("EnsureIdentity", ctx, models.Identity{}).Return(models.Identity{Id: "id2"}, true, nil)

	identity, newToken, err := svc.EnsureIdentity(ctx, token)

	assert.NoError(t, err)
	assert.Equal(t, "id2", identity.Id)

	id, err := svc.VerifyJWT(newToken)
	assert.NoError(t, err)
	assert.Equal(t, "id2", id)
}

func TestEnsureIdentity_GarbageTokenGetsFreshIdentity(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("EnsureIdentity", ctx, models.Identity{}).Return(models.Identity{Id: "id3"}, true, nil)

	identity, _, err := svc.EnsureIdentity(ctx, "not-a-jwt")

	assert.NoError(t, err)
	assert.Equal(t, "id3", identity.Id)
	mockStore.AssertNotCalled(t, "GetIdentity", mock.Anything, mock.Anything)
}

func TestAuthenticateToken(t *testing.T) {
	svc, mockStore, _, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AuthenticateToken(ctx, "")
	assert.Error(t, err)

	_, err = svc.AuthenticateToken(ctx, "garbage")
	assert.Error(t, err)

	token, err := svc.CreateJWT("id1")
	assert.NoError(t, err)
	mockStore.On("GetIdentity", ctx, "id1").Return(models.Identity{Id: "id1", SubmissionCount: 3}, nil)

	identity, err := svc.AuthenticateToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, 3, identity.SubmissionCount)
}
