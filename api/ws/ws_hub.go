package ws

import (
	"context"
	"log"

	"github.com/theochan/humangen/cache"
)

type subscription struct {
	client     *Client
	galleryKey string
}

type broadcast struct {
	galleryKey string
	message    []byte
}

// Hub maintains the set of active clients and fans gallery events out to
// them. One Redis subscription exists per gallery with at least one
// subscriber; it is torn down when the last subscriber leaves. All maps are
// owned by the Run goroutine: pubsub callbacks forward through BroadcastCh
// instead of reading them.
type Hub struct {
	humangenCache             cache.HumanGenCache
	OpenCh                    chan *Client
	CloseCh                   chan *Client
	SubscribeCh               chan subscription
	UnsubscribeCh             chan subscription
	BroadcastCh               chan broadcast
	identityToClients         map[string]map[*Client]struct{}
	galleryToClients          map[string]map[*Client]struct{}
	galleryToSubscriberCancel map[string]context.CancelFunc
	rejected                  map[*Client]struct{}
}

func NewHub(humangenCache cache.HumanGenCache) *Hub {
	return &Hub{
		humangenCache:             humangenCache,
		OpenCh:                    make(chan *Client, 256),
		CloseCh:                   make(chan *Client, 256),
		SubscribeCh:               make(chan subscription, 1024),
		UnsubscribeCh:             make(chan subscription, 1024),
		BroadcastCh:               make(chan broadcast, 1024),
		identityToClients:         make(map[string]map[*Client]struct{}),
		galleryToClients:          make(map[string]map[*Client]struct{}),
		galleryToSubscriberCancel: make(map[string]context.CancelFunc),
		rejected:                  make(map[*Client]struct{}),
	}
}

const (
	maxConnectionsPerIdentity     = 3
	maxSubscriptionsPerConnection = 10
)

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.OpenCh:
			if _, ok := h.identityToClients[client.identity.Id]; !ok {
				h.identityToClients[client.identity.Id] = make(map[*Client]struct{})
			}

			if len(h.identityToClients[client.identity.Id]) >= maxConnectionsPerIdentity {
				log.Printf("Identity %s reached max connections (%d)", client.identity.Id, maxConnectionsPerIdentity)
				// Remember the rejection until CloseCh: the read pump is still
				// running and may push subscribes for the closed Send channel.
				h.rejected[client] = struct{}{}
				close(client.Send)
				continue
			}

			h.identityToClients[client.identity.Id][client] = struct{}{}

		case client := <-h.CloseCh:
			for gallery := range client.subscribedGalleries {
				delete(h.galleryToClients[gallery], client)
				if len(h.galleryToClients[gallery]) == 0 {
					if cancel, ok := h.galleryToSubscriberCancel[gallery]; ok {
						cancel()
						delete(h.galleryToSubscriberCancel, gallery)
					}
					delete(h.galleryToClients, gallery)
				}
			}
			delete(h.identityToClients[client.identity.Id], client)
			if len(h.identityToClients[client.identity.Id]) == 0 {
				delete(h.identityToClients, client.identity.Id)
			}
			delete(h.rejected, client)

		case sub := <-h.SubscribeCh:
			if _, ok := h.rejected[sub.client]; ok {
				continue
			}
			if len(sub.client.subscribedGalleries) >= maxSubscriptionsPerConnection {
				log.Printf("Connection by identity %s reached max subscriptions (%d)", sub.client.identity.Id, maxSubscriptionsPerConnection)
				continue
			}
			if h.galleryToClients[sub.galleryKey] == nil {
				log.Printf("Subscriber does not exist, creating for gallery: %s", sub.galleryKey)

				ctx, cancel := context.WithCancel(context.Background())
				galleryKey := sub.galleryKey
				channel := "gallery:" + galleryKey

				// The callback runs on the pubsub goroutine; it only forwards,
				// fanout happens on this goroutine via BroadcastCh.
				err := h.humangenCache.Subscribe(ctx, channel, func(messageBytes []byte) {
					h.BroadcastCh <- broadcast{galleryKey: galleryKey, message: messageBytes}
				})
				if err != nil {
					log.Printf("Failed to create redis sub for channel %s: %v", channel, err)
					cancel()
					continue
				}

				h.galleryToClients[sub.galleryKey] = make(map[*Client]struct{})
				h.galleryToSubscriberCancel[sub.galleryKey] = cancel
			}
			h.galleryToClients[sub.galleryKey][sub.client] = struct{}{}
			sub.client.subscribedGalleries[sub.galleryKey] = struct{}{}

		case msg := <-h.BroadcastCh:
			for client := range h.galleryToClients[msg.galleryKey] {
				select {
				case client.Send <- msg.message:
				default:
					// Slow consumer; drop the event rather than stall the hub.
				}
			}

		case unsub := <-h.UnsubscribeCh:
			delete(h.galleryToClients[unsub.galleryKey], unsub.client)
			delete(unsub.client.subscribedGalleries, unsub.galleryKey)
			if len(h.galleryToClients[unsub.galleryKey]) == 0 {
				if cancel, ok := h.galleryToSubscriberCancel[unsub.galleryKey]; ok {
					cancel()
					delete(h.galleryToSubscriberCancel, unsub.galleryKey)
				}
				delete(h.galleryToClients, unsub.galleryKey)
			}
		}
	}
}
