package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	cachemocks "github.com/theochan/humangen/cache/mocks"
	"github.com/theochan/humangen/models"
)

// subscribeCapture wires a mock cache whose Subscribe call hands back the
// registered pubsub handler, standing in for the Redis message loop.
func subscribeCapture(mockCache *cachemocks.MockCache, channel string) chan func([]byte) {
	handlerCh := make(chan func([]byte), 1)
	mockCache.On("Subscribe", mock.Anything, channel, mock.Anything).
		Run(func(args mock.Arguments) {
			handlerCh <- args.Get(2).(func(message []byte))
		}).
		Return(nil)
	return handlerCh
}

func recvOrFail(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub delivery")
		return nil
	}
}

func TestHub_BroadcastFansOutThroughRunLoop(t *testing.T) {
	mockCache := new(cachemocks.MockCache)
	handlerCh := subscribeCapture(mockCache, "gallery:g1")

	hub := NewHub(mockCache)
	go hub.Run()

	client := NewClient(hub, nil, models.Identity{Id: "identity-1"}, nil)
	hub.OpenCh <- client
	hub.SubscribeCh <- subscription{client: client, galleryKey: "g1"}

	var handler func([]byte)
	select {
	case handler = <-handlerCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription")
	}

	payload := []byte(`{"type":"like_update"}`)
	handler(payload)

	assert.Equal(t, payload, recvOrFail(t, client.Send))
}

func TestHub_RejectedClientNeverReceivesBroadcasts(t *testing.T) {
	mockCache := new(cachemocks.MockCache)
	handlerCh := subscribeCapture(mockCache, "gallery:g1")

	hub := NewHub(mockCache)
	go hub.Run()

	identity := models.Identity{Id: "identity-1"}
	accepted := NewClient(hub, nil, identity, nil)
	hub.OpenCh <- accepted
	for i := 1; i < maxConnectionsPerIdentity; i++ {
		hub.OpenCh <- NewClient(hub, nil, identity, nil)
	}

	// One past the cap: the hub closes its Send channel.
	rejected := NewClient(hub, nil, identity, nil)
	hub.OpenCh <- rejected

	select {
	case _, ok := <-rejected.Send:
		assert.False(t, ok, "rejected client's Send channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rejection")
	}

	// The rejected connection's read pump may still push subscribes; they
	// must be ignored, not fan out into the closed channel.
	hub.SubscribeCh <- subscription{client: rejected, galleryKey: "g1"}
	hub.SubscribeCh <- subscription{client: accepted, galleryKey: "g1"}

	var handler func([]byte)
	select {
	case handler = <-handlerCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription")
	}

	payload := []byte(`{"type":"new_artwork"}`)
	handler(payload)

	assert.Equal(t, payload, recvOrFail(t, accepted.Send))
}
