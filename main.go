package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/theochan/humangen/api"
	"github.com/theochan/humangen/cache/redis"
	"github.com/theochan/humangen/mq/sqsmq"
	"github.com/theochan/humangen/promptgen"
	"github.com/theochan/humangen/promptgen/openai"
	"github.com/theochan/humangen/store/dynamo"
)

const (
	DynamoDBTable            = "HumanGen"
	SQSRegeneratePromptQueue = "RegeneratePromptQueue"
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	humangenStore, err := dynamo.NewDynamoHumanGenStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), DynamoDBTable)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	regeneratePromptQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSRegeneratePromptQueue)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	humangenCache, err := redis.NewRedisHumanGenCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	generator := openai.NewOpenAIGenerator(os.Getenv("OPENAI_API_KEY"), promptgen.DefaultColors)

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to decode base64 jwtSecret: %v", err)
	}

	var adminEmails []string
	for _, email := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			adminEmails = append(adminEmails, trimmed)
		}
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	humangenApi, err := api.NewHumanGenAPI(humangenStore, regeneratePromptQueue, humangenCache, generator, jwtSecret, adminEmails, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create humangen api: %v", err)
	}

	mux := http.NewServeMux()
	humangenApi.RegisterRoutes(mux, os.Getenv("ALLOWED_ORIGIN"))

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting server on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}
