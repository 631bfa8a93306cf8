package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/theochan/humangen/mq"
	mqmocks "github.com/theochan/humangen/mq/mocks"
	promptgenmocks "github.com/theochan/humangen/promptgen/mocks"
	storemocks "github.com/theochan/humangen/store/mocks"
)

func TestMQConsumer_DropsPoisonMessages(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	mockStore := new(storemocks.MockStore)
	mockGenerator := new(promptgenmocks.MockGenerator)
	mockQueue := new(mqmocks.MockMQ)
	consumer := NewMQConsumer(mockQueue, NewPromptScheduler(mockStore, mockGenerator, loc))

	poison := &mq.Message{Id: "m1", Body: "{not json"}
	mockQueue.On("Receive", mock.Anything, int32(visibilityTimeout)).Return(poison, nil).Once()
	mockQueue.On("Receive", mock.Anything, int32(visibilityTimeout)).Return(nil, context.Canceled)
	mockQueue.On("Delete", mock.Anything, poison).Return(nil).Once()

	consumer.Run(context.Background())

	// The unparseable message is deleted without triggering a regeneration.
	mockQueue.AssertExpectations(t)
	mockGenerator.AssertNotCalled(t, "Generate", mock.Anything)
}
