package ws

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/theochan/humangen/canvas"
	"github.com/theochan/humangen/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024 * 16

	// Rate limiting: pointer samples arrive fast while a stroke is in
	// progress, so the budget is higher than a request/response API's.
	messagesPerSecond = 120
	burstLimit        = 240
)

type MessageHandler func(client *Client, messageType int, messageBytes []byte)

func NewClient(hub *Hub, conn *websocket.Conn, identity models.Identity, handler MessageHandler) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:                 hub,
		conn:                conn,
		identity:            identity,
		handler:             handler,
		subscribedGalleries: make(map[string]struct{}),
		Send:                make(chan []byte, 128),
		ctx:                 ctx,
		cancel:              cancel,
		limiter:             rate.NewLimiter(rate.Limit(messagesPerSecond), burstLimit),
	}
}

// Client is a middleman between the websocket connection and the hub. The
// drawing surface is owned by the read pump: all surface access happens on
// that single goroutine, so pointer capture never contends with anything.
type Client struct {
	hub                 *Hub
	conn                *websocket.Conn
	identity            models.Identity
	handler             MessageHandler
	subscribedGalleries map[string]struct{}
	surface             *canvas.Surface
	surfaceWidth        int
	surfaceHeight       int
	Send                chan []byte // Buffered channel of outbound messages.
	ctx                 context.Context
	cancel              context.CancelFunc
	limiter             *rate.Limiter
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.CloseCh <- c
		c.conn.Close()
		c.cancel()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		messageType, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS close error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("Closing connection for identity %s: message rate limit exceeded", c.identity.Id)
			break
		}

		c.handler(c, messageType, messageBytes)
	}
}

func (c *Client) WritePump(shutdownCtx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WS send error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-shutdownCtx.Done():
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Websocket service shutting down"),
			)
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
