package service

import (
	"errors"

	"github.com/theochan/humangen/cache"
	"github.com/theochan/humangen/like"
	"github.com/theochan/humangen/mq"
	"github.com/theochan/humangen/promptgen"
	"github.com/theochan/humangen/store"
	"github.com/theochan/humangen/worker"
)

// ErrQuotaExceeded signals that the identity already submitted an artwork
// for the current calendar day.
var ErrQuotaExceeded = errors.New("daily submission quota exceeded")

type Service struct {
	Store         store.HumanGenStore
	Cache         cache.HumanGenCache
	MQ            mq.MessageQueue
	LikeCoord     *like.Coordinator
	RankRefresher *worker.RankRefresher
	Generator     promptgen.Generator
	JWTSecret     []byte
	AdminEmails   map[string]bool
}

func NewService(
	store store.HumanGenStore,
	cache cache.HumanGenCache,
	mq mq.MessageQueue,
	likeCoord *like.Coordinator,
	rankRefresher *worker.RankRefresher,
	generator promptgen.Generator,
	jwtSecret []byte,
	adminEmails []string,
) (*Service, error) {
	emails := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		emails[email] = true
	}

	return &Service{
		Store:         store,
		Cache:         cache,
		MQ:            mq,
		LikeCoord:     likeCoord,
		RankRefresher: rankRefresher,
		Generator:     generator,
		JWTSecret:     jwtSecret,
		AdminEmails:   emails,
	}, nil
}
