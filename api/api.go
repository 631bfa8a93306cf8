package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/theochan/humangen/api/rest"
	"github.com/theochan/humangen/api/ws"
	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/like"
	"github.com/theochan/humangen/mq"
	"github.com/theochan/humangen/promptgen"
	"github.com/theochan/humangen/service"
	"github.com/theochan/humangen/store"
	"github.com/theochan/humangen/worker"
)

const scheduleTimeZone = "America/New_York"

type HumanGenAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	wsUpgrader  websocket.Upgrader
	shutdownCtx context.Context
}

func NewHumanGenAPI(
	humangenStore store.HumanGenStore,
	regeneratePromptQueue mq.MessageQueue,
	humangenCache cache.HumanGenCache,
	generator promptgen.Generator,
	jwtSecret []byte,
	adminEmails []string,
	shutdownCtx context.Context,
) (*HumanGenAPI, error) {
	location, err := time.LoadLocation(scheduleTimeZone)
	if err != nil {
		return &HumanGenAPI{}, err
	}

	wsHub := ws.NewHub(humangenCache)
	go wsHub.Run()

	rankRefresher := worker.NewRankRefresher(humangenStore, humangenCache, 60000)
	go rankRefresher.Run(shutdownCtx)

	likeCoord := like.NewCoordinator(humangenStore, humangenCache, rankRefresher.DirtyCh)

	promptScheduler := worker.NewPromptScheduler(humangenStore, generator, location)
	go promptScheduler.Run(shutdownCtx)

	mqConsumer := worker.NewMQConsumer(regeneratePromptQueue, promptScheduler)
	go mqConsumer.Run(shutdownCtx)

	svc, err := service.NewService(
		humangenStore,
		humangenCache,
		regeneratePromptQueue,
		likeCoord,
		rankRefresher,
		generator,
		jwtSecret,
		adminEmails,
	)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &HumanGenAPI{}, err
	}

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &HumanGenAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (humangenAPI *HumanGenAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/identity", humangenAPI.restHandler.HandleIdentity)
	mux.HandleFunc("/prompt", humangenAPI.restHandler.HandlePrompt)
	mux.HandleFunc("/prompt/history", humangenAPI.restHandler.HandlePromptHistory)
	mux.HandleFunc("/artworks", humangenAPI.restHandler.HandleArtworks)
	mux.HandleFunc("/artworks/", humangenAPI.restHandler.HandleArtwork)
	mux.HandleFunc("/admin/prompt", humangenAPI.restHandler.HandleAdminPrompt)

	wsUpgrader := humangenAPI.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		humangenAPI.wsHandler.ServeWS(wsUpgrader, w, r, humangenAPI.shutdownCtx)
	})
}
