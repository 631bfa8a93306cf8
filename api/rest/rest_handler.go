package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/theochan/humangen/like"
	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/service"
	"github.com/theochan/humangen/store"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type identityResponse struct {
	Id             string `json:"id"`
	Token          string `json:"token"`
	CanSubmitToday bool   `json:"canSubmitToday"`
}

// HandleIdentity mints or refreshes the caller's anonymous identity. An
// existing valid token is returned unchanged; everything else gets a fresh
// identity.
func (h *Handler) HandleIdentity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity, token, err := h.Service.EnsureIdentity(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		log.Printf("EnsureIdentity failed: %v", err)
		http.Error(w, "failed to resolve identity", http.StatusInternalServerError)
		return
	}

	canSubmit, err := h.Service.CanSubmitToday(r.Context(), identity.Id)
	if err != nil {
		// The gate check is advisory here; default to open and let the
		// submission path enforce it.
		canSubmit = true
	}

	resp := identityResponse{
		Id:             identity.Id,
		Token:          token,
		CanSubmitToday: canSubmit,
	}
	h.sendResponse(w, resp)
}

func (h *Handler) HandlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	prompt, err := h.Service.CurrentPrompt(r.Context())
	if err != nil {
		log.Printf("CurrentPrompt failed: %v", err)
		http.Error(w, "failed to load prompt", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, prompt)
}

func (h *Handler) HandlePromptHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := int32(10)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 || parsed > 100 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = int32(parsed)
	}

	prompts, err := h.Service.PromptHistory(r.Context(), limit)
	if err != nil {
		log.Printf("PromptHistory failed: %v", err)
		http.Error(w, "failed to load prompt history", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, prompts)
}

type submitRequest struct {
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Strokes []models.Stroke `json:"strokes"`
}

// HandleArtworks serves the gallery listing and submissions.
func (h *Handler) HandleArtworks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListArtworks(w, r)

	case http.MethodPost:
		h.handleSubmitArtwork(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleListArtworks(w http.ResponseWriter, r *http.Request) {
	promptText := r.URL.Query().Get("prompt")
	if promptText == "" {
		// Default to the current prompt's gallery
		prompt, err := h.Service.CurrentPrompt(r.Context())
		if err != nil {
			http.Error(w, "failed to load prompt", http.StatusInternalServerError)
			return
		}
		promptText = prompt.Text
	}

	viewerId := h.viewerIdFromToken(r)

	artworks, err := h.Service.LoadGallery(r.Context(), promptText, viewerId)
	if err != nil {
		log.Printf("LoadGallery failed: %v", err)
		http.Error(w, "failed to load gallery", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, artworks)
}

func (h *Handler) handleSubmitArtwork(w http.ResponseWriter, r *http.Request) {
	identity, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	artwork, err := h.Service.SubmitArtwork(r.Context(), service.SubmitParams{
		IdentityId: identity.Id,
		Width:      req.Width,
		Height:     req.Height,
		Strokes:    req.Strokes,
	})
	if err != nil {
		if errors.Is(err, service.ErrQuotaExceeded) {
			http.Error(w, "already submitted today", http.StatusConflict)
			return
		}
		log.Printf("SubmitArtwork failed: %v", err)
		http.Error(w, "failed to submit artwork", http.StatusBadRequest)
		return
	}

	h.sendResponse(w, artwork)
}

// HandleArtwork routes /artworks/{id} and /artworks/{id}/like.
func (h *Handler) HandleArtwork(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/artworks/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleGetArtwork(w, r, parts[0])

	case len(parts) == 2 && parts[1] == "like":
		h.handleToggleLike(w, r, parts[0])

	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleGetArtwork(w http.ResponseWriter, r *http.Request, artworkId string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	artwork, err := h.Service.GetArtwork(r.Context(), artworkId, h.viewerIdFromToken(r))
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("GetArtwork failed: %v", err)
		http.Error(w, "failed to load artwork", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, artwork)
}

func (h *Handler) handleToggleLike(w http.ResponseWriter, r *http.Request, artworkId string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	result, err := h.Service.ToggleLike(r.Context(), artworkId, identity.Id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			http.NotFound(w, r)
		case errors.Is(err, like.ErrTogglePending):
			http.Error(w, "toggle already in flight", http.StatusConflict)
		default:
			log.Printf("ToggleLike failed: %v", err)
			http.Error(w, "failed to toggle like", http.StatusInternalServerError)
		}
		return
	}

	h.sendResponse(w, result)
}

// HandleAdminPrompt queues a manual prompt regeneration. The bearer token
// here is a Google access token, not an identity token.
func (h *Handler) HandleAdminPrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := h.Service.RequestPromptRegeneration(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		log.Printf("RequestPromptRegeneration failed: %v", err)
		http.Error(w, "failed to queue regeneration", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, map[string]bool{"success": true})
}

// viewerIdFromToken resolves an optional identity for read endpoints; an
// absent or invalid token just means HasLiked stays false.
func (h *Handler) viewerIdFromToken(r *http.Request) string {
	token := h.getTokenFromAuthHeader(r)
	if token == "" {
		return ""
	}
	id, err := h.Service.VerifyJWT(token)
	if err != nil {
		return ""
	}
	return id
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
