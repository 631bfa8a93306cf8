package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/canvas"
	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/service"
)

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == requiredOrigin
		},
		Subprotocols: []string{"humangen-v1"},
	}
}

// ServeWS handles websocket requests from the peer. The identity token
// rides in as the second subprotocol since browsers cannot set headers on
// websocket upgrades.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	protocols := r.Header.Get("Sec-WebSocket-Protocol")
	protocolsSplit := strings.Split(protocols, ",")

	if len(protocolsSplit) != 2 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token := strings.TrimSpace(protocolsSplit[1])

	identity, authErr := h.Service.AuthenticateToken(r.Context(), token)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	// Must upgrade the connection in order to be able to send custom close message
	if authErr != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthenticated"),
		)
		conn.Close()
		return
	}

	client := NewClient(h.Hub, conn, identity, h.HandleWsMessage)

	// Seed the submission-day fast path so the first gate check hits cache
	if identity.LastSubmission != "" {
		h.Service.Cache.SeedSubmissionDay(context.Background(), identity.Id, identity.LastSubmission)
	}

	h.Hub.OpenCh <- client

	// Start pumps
	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// Websocket message structs
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type startMessage struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type setPenMessage struct {
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

type pointMessage struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

type galleryMessage struct {
	PromptText string `json:"promptText"`
}

type responseMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Invalid JSON: %v", err)
		return
	}

	var resp responseMessage

	switch msg.Type {
	case "start":
		var startMsg startMessage
		if err := json.Unmarshal(msg.Data, &startMsg); err != nil {
			log.Printf("Invalid start data: %v", err)
			return
		}
		resp = h.handleStart(client, startMsg)

	case "set_pen":
		var penMsg setPenMessage
		if err := json.Unmarshal(msg.Data, &penMsg); err != nil {
			log.Printf("Invalid set_pen data: %v", err)
			return
		}
		resp = h.handleSetPen(client, penMsg)

	case "begin":
		var pointMsg pointMessage
		if err := json.Unmarshal(msg.Data, &pointMsg); err != nil {
			return
		}
		if client.surface != nil {
			client.surface.BeginStroke(models.StrokePoint{X: pointMsg.X, Y: pointMsg.Y, Pressure: pointMsg.Pressure})
		}

	case "extend":
		var pointMsg pointMessage
		if err := json.Unmarshal(msg.Data, &pointMsg); err != nil {
			return
		}
		if client.surface != nil {
			client.surface.ExtendStroke(models.StrokePoint{X: pointMsg.X, Y: pointMsg.Y, Pressure: pointMsg.Pressure})
		}

	case "end":
		resp = h.handleEnd(client)

	case "undo":
		resp = h.handleUndo(client)

	case "submit":
		resp = h.handleSubmit(client)

	case "subscribe":
		var galleryMsg galleryMessage
		if err := json.Unmarshal(msg.Data, &galleryMsg); err != nil {
			log.Printf("Invalid subscribe data: %v", err)
			return
		}
		resp = h.handleSubscribe(client, galleryMsg)

	case "unsubscribe":
		var galleryMsg galleryMessage
		if err := json.Unmarshal(msg.Data, &galleryMsg); err != nil {
			log.Printf("Invalid unsubscribe data: %v", err)
			return
		}
		resp = h.handleUnsubscribe(client, galleryMsg)

	default:
		log.Printf("Unknown message type: %v", msg.Type)
	}

	if resp.Type != "" {
		respBytes, err := json.Marshal(resp)
		if err != nil {
			log.Printf("Error marshaling response JSON: %v", err)
			return
		}
		client.Send <- respBytes
	}
}

func (h *Handler) handleStart(client *Client, startMsg startMessage) responseMessage {
	resp := responseMessage{
		Type: "start_response",
	}

	if err := service.ValidateCanvasSize(startMsg.Width, startMsg.Height); err != nil {
		resp.Data = map[string]any{"success": false, "error": err.Error()}
		return resp
	}

	client.surface = canvas.NewSurface(startMsg.Width, startMsg.Height)
	client.surfaceWidth = startMsg.Width
	client.surfaceHeight = startMsg.Height

	resp.Data = map[string]any{"success": true, "width": startMsg.Width, "height": startMsg.Height}
	return resp
}

func (h *Handler) handleSetPen(client *Client, penMsg setPenMessage) responseMessage {
	resp := responseMessage{
		Type: "set_pen_response",
	}

	if client.surface == nil {
		resp.Data = map[string]any{"success": false, "error": "no drawing session"}
		return resp
	}

	client.surface.SetPen(penMsg.Size, penMsg.Color)
	resp.Data = map[string]any{"success": true}
	return resp
}

func (h *Handler) handleEnd(client *Client) responseMessage {
	resp := responseMessage{
		Type: "end_response",
	}

	if client.surface == nil {
		resp.Data = map[string]any{"success": false, "error": "no drawing session"}
		return resp
	}

	client.surface.EndStroke()
	resp.Data = map[string]any{"success": true, "strokeCount": client.surface.StrokeCount()}
	return resp
}

func (h *Handler) handleUndo(client *Client) responseMessage {
	resp := responseMessage{
		Type: "undo_response",
	}

	if client.surface == nil {
		resp.Data = map[string]any{"success": false, "error": "no drawing session"}
		return resp
	}

	client.surface.Undo()
	resp.Data = map[string]any{"success": true, "strokeCount": client.surface.StrokeCount()}
	return resp
}

func (h *Handler) handleSubmit(client *Client) responseMessage {
	resp := responseMessage{
		Type: "submit_response",
	}

	if client.surface == nil {
		resp.Data = map[string]any{"success": false, "error": "no drawing session"}
		return resp
	}

	artwork, err := h.Service.SubmitArtwork(context.Background(), service.SubmitParams{
		IdentityId: client.identity.Id,
		Width:      client.surfaceWidth,
		Height:     client.surfaceHeight,
		Strokes:    client.surface.Strokes(),
	})
	if err != nil {
		log.Printf("SubmitArtwork failed: %v", err)
		resp.Data = map[string]any{"success": false, "error": err.Error()}
		return resp
	}

	// The session is spent; a new drawing needs a fresh start message.
	client.surface = nil

	resp.Data = map[string]any{"success": true, "artworkId": artwork.Id}
	return resp
}

func (h *Handler) handleSubscribe(client *Client, galleryMsg galleryMessage) responseMessage {
	resp := responseMessage{
		Type: "subscribe_response",
	}

	galleryKey := cache.GalleryKeyFor(galleryMsg.PromptText)
	sub := subscription{client: client, galleryKey: galleryKey}
	h.Hub.SubscribeCh <- sub
	resp.Data = map[string]any{"success": true, "galleryKey": galleryKey}

	return resp
}

func (h *Handler) handleUnsubscribe(client *Client, galleryMsg galleryMessage) responseMessage {
	resp := responseMessage{
		Type: "unsubscribe_response",
	}

	galleryKey := cache.GalleryKeyFor(galleryMsg.PromptText)
	sub := subscription{client: client, galleryKey: galleryKey}
	h.Hub.UnsubscribeCh <- sub
	resp.Data = map[string]any{"success": true, "galleryKey": galleryKey}

	return resp
}
