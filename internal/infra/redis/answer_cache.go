package redis

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches correct options from the backing question store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, questionIDs []int64) (map[int64]string, error)
}

// AnswerKeyCache caches correct options in Redis and falls back to a loader
// on miss. Layout: SET quiz:answer:{questionID} {correctOption} EX ttl, one
// key per question so entries expire independently.
type AnswerKeyCache struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

const answerKeyPrefix = "quiz:answer:"

func NewAnswerKeyCache(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, questionIDs []int64) (map[int64]string, error) {
	key := make(map[int64]string, len(questionIDs))
	if len(questionIDs) == 0 {
		return key, nil
	}

	keys := make([]string, len(questionIDs))
	for i, id := range questionIDs {
		keys[i] = answerKey(id)
	}
	var missing []int64
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		// cache unavailable: load everything from the store
		missing = questionIDs
	} else {
		for i, v := range values {
			if s, ok := v.(string); ok {
				key[questionIDs[i]] = s
				continue
			}
			missing = append(missing, questionIDs[i])
		}
	}
	if len(missing) == 0 {
		return key, nil
	}

	result, err, _ := c.sf.Do(flightKey(missing), func() (interface{}, error) {
		loaded, err := c.loader.LoadAnswerKey(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(loaded) == 0 {
			return loaded, nil
		}
		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for id, correct := range loaded {
			pipe.Set(ctx, answerKey(id), correct, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	for id, correct := range result.(map[int64]string) {
		key[id] = correct
	}
	return key, nil
}

func (c *AnswerKeyCache) Invalidate(ctx context.Context, questionID int64) error {
	return c.client.Del(ctx, answerKey(questionID)).Err()
}

func answerKey(questionID int64) string {
	return answerKeyPrefix + strconv.FormatInt(questionID, 10)
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func flightKey(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
