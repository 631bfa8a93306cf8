package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/theochan/humangen/mq"
)

// RegeneratePromptMessage is the body of a manual regeneration request
// queued by an admin.
type RegeneratePromptMessage struct {
	RequestedBy string `json:"requestedBy"`
	RequestedAt int64  `json:"requestedAt"`
}

// MQConsumer drains the regeneration queue and replaces the current prompt.
// Going through the queue keeps the admin endpoint fast and collapses
// double-clicks into sequential, idempotent regenerations.
type MQConsumer struct {
	regeneratePromptQueue mq.MessageQueue
	promptScheduler       *PromptScheduler
}

func NewMQConsumer(regeneratePromptQueue mq.MessageQueue, promptScheduler *PromptScheduler) *MQConsumer {
	return &MQConsumer{
		regeneratePromptQueue: regeneratePromptQueue,
		promptScheduler:       promptScheduler,
	}
}

// Generation makes two model calls; give a regeneration a generous window.
const visibilityTimeout = 120

func (mqConsumer MQConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := mqConsumer.regeneratePromptQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("mqConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var regenMsg RegeneratePromptMessage
		if err := json.Unmarshal([]byte(msg.Body), &regenMsg); err != nil {
			// Poison message: it will never parse, so delete it instead of
			// letting it redeliver until retention expires.
			log.Printf("mqConsumer dropping unparseable message %s: %v", msg.Id, err)
			if err := mqConsumer.regeneratePromptQueue.Delete(context.Background(), msg); err != nil {
				log.Printf("mqConsumer delete error: %v", err)
			}
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)
		prompt, err := mqConsumer.promptScheduler.GeneratePrompt(ctx, time.Now())
		cancel()

		if err != nil {
			log.Printf("Manual prompt regeneration failed: %v", err)
			continue
		}
		log.Printf("Prompt regenerated by %s: %q", regenMsg.RequestedBy, prompt.Text)

		err = mqConsumer.regeneratePromptQueue.Delete(context.Background(), msg)
		if err != nil {
			log.Printf("mqConsumer delete error: %v", err)
			continue
		}
	}
}
