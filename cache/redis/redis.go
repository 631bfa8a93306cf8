package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/theochan/humangen/cache"
)

type RedisHumanGenCache struct {
	client redis.UniversalClient
}

func NewRedisHumanGenCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisHumanGenCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisHumanGenCache{client: client}, nil
}

func (redisCache *RedisHumanGenCache) Publish(ctx context.Context, channel string, message []byte) error {
	if err := redisCache.client.Publish(ctx, channel, message).Err(); err != nil {
		return err
	}
	return nil
}

func (redisCache *RedisHumanGenCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := redisCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub channel closed: %s", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

// Helper functions to generate Redis keys with hash tags for cluster compatibility
func buildGalleryKey(galleryKey string) string {
	return "gallery:{" + galleryKey + "}"
}

func buildGalleryDataKey(galleryKey string) string {
	return "gallery:{" + galleryKey + "}:data"
}

func buildGalleryCompleteKey(galleryKey string) string {
	return "gallery:{" + galleryKey + "}:complete"
}

const cacheTTL = 10 * time.Minute

// Split index/data pattern for galleries:
// 1. ZSet ("gallery:{key}"): ArtworkIDs scored by creation time. Keeps a
//    stable chronological index and O(1) membership.
// 2. Hash ("gallery:{key}:data"): ArtworkID -> JSON blob, fetched with HMGET
//    after reading the index. Like updates rewrite a single hash field
//    without disturbing the index.
// Ranking is NOT encoded in the score: the service re-sorts the full slice
// (likes desc, created desc) on every read, which is the documented contract.
func (redisCache *RedisHumanGenCache) AddArtwork(ctx context.Context, galleryKey string, artworkId string, score int64, data []byte) error {
	key := buildGalleryKey(galleryKey)
	dataKey := buildGalleryDataKey(galleryKey)
	completeKey := buildGalleryCompleteKey(galleryKey)

	pipe := redisCache.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: artworkId})
	pipe.HSet(ctx, dataKey, artworkId, data)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (redisCache *RedisHumanGenCache) AddArtworksBatch(ctx context.Context, galleryKey string, items []cache.GalleryCacheItem) error {
	if len(items) == 0 {
		return nil
	}

	key := buildGalleryKey(galleryKey)
	dataKey := buildGalleryDataKey(galleryKey)
	completeKey := buildGalleryCompleteKey(galleryKey)

	zMembers := make([]redis.Z, len(items))
	hValues := make([]interface{}, len(items)*2)

	for i, item := range items {
		zMembers[i] = redis.Z{
			Score:  float64(item.Score),
			Member: item.ArtworkId,
		}
		hValues[i*2] = item.ArtworkId
		hValues[i*2+1] = item.Data
	}

	pipe := redisCache.client.Pipeline()
	pipe.ZAdd(ctx, key, zMembers...)
	pipe.HSet(ctx, dataKey, hValues...)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// UpdateArtworkData rewrites one artwork's cached JSON in place, leaving the
// index untouched. A no-op when the gallery is not cached; the next load
// backfills from the store anyway.
func (redisCache *RedisHumanGenCache) UpdateArtworkData(ctx context.Context, galleryKey string, artworkId string, data []byte) error {
	dataKey := buildGalleryDataKey(galleryKey)

	exists, err := redisCache.client.Exists(ctx, dataKey).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}

	pipe := redisCache.client.Pipeline()
	pipe.HSet(ctx, dataKey, artworkId, data)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (redisCache *RedisHumanGenCache) GetArtworks(ctx context.Context, galleryKey string) ([][]byte, error) {
	key := buildGalleryKey(galleryKey)
	dataKey := buildGalleryDataKey(galleryKey)
	completeKey := buildGalleryCompleteKey(galleryKey)

	// 1. Get ids from the index, oldest first
	ids, err := redisCache.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return [][]byte{}, nil
	}

	// 2. Fetch data from Hash
	dataMap, err := redisCache.client.HMGet(ctx, dataKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	// 3. Assemble result
	artworks := make([][]byte, 0, len(ids))
	for _, item := range dataMap {
		if item == nil {
			continue // Should not happen if consistency is maintained
		}
		if s, ok := item.(string); ok {
			artworks = append(artworks, []byte(s))
		}
	}

	// Refresh TTL
	pipe := redisCache.client.Pipeline()
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, _ = pipe.Exec(ctx)

	return artworks, nil
}

func (redisCache *RedisHumanGenCache) SetGalleryComplete(ctx context.Context, galleryKey string) error {
	completeKey := buildGalleryCompleteKey(galleryKey)
	return redisCache.client.Set(ctx, completeKey, "true", cacheTTL).Err()
}

func (redisCache *RedisHumanGenCache) IsGalleryComplete(ctx context.Context, galleryKey string) (bool, error) {
	completeKey := buildGalleryCompleteKey(galleryKey)
	val, err := redisCache.client.Exists(ctx, completeKey).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

// Submission-day cache: fast path for the daily gate. The store's conditional
// update remains the source of truth; a stale or missing entry only costs a
// store read.
func (redisCache *RedisHumanGenCache) SeedSubmissionDay(ctx context.Context, identityId string, day string) error {
	key := "identity:" + identityId + ":submission_day"
	return redisCache.client.SetNX(ctx, key, day, cacheTTL).Err()
}

func (redisCache *RedisHumanGenCache) SetSubmissionDay(ctx context.Context, identityId string, day string) error {
	key := "identity:" + identityId + ":submission_day"
	return redisCache.client.Set(ctx, key, day, cacheTTL).Err()
}

func (redisCache *RedisHumanGenCache) GetSubmissionDay(ctx context.Context, identityId string) (string, error) {
	key := "identity:" + identityId + ":submission_day"
	val, err := redisCache.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // Not found
		}
		return "", err
	}
	return val, nil
}
