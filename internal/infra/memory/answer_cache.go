package memory

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches correct options from the backing question store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, questionIDs []int64) (map[int64]string, error)
}

// AnswerKeyCache caches correct options per question with TTL to avoid
// repeated DB hits while scoring.
type AnswerKeyCache struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedAnswer
}

type cachedAnswer struct {
	correct   string
	expiresAt time.Time
}

func NewAnswerKeyCache(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedAnswer),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, questionIDs []int64) (map[int64]string, error) {
	key, missing := c.lookup(questionIDs)
	if len(missing) == 0 {
		return key, nil
	}

	result, err, _ := c.sf.Do(flightKey(missing), func() (interface{}, error) {
		loaded, err := c.loader.LoadAnswerKey(ctx, missing)
		if err != nil {
			return nil, err
		}
		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		for id, correct := range loaded {
			c.cache[id] = cachedAnswer{correct: correct, expiresAt: expiresAt}
		}
		c.mu.Unlock()
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

func (c *AnswerKeyCache) Invalidate(_ context.Context, questionID int64) error {
	c.mu.Lock()
	delete(c.cache, questionID)
	c.mu.Unlock()
	return nil
}

func (c *AnswerKeyCache) lookup(questionIDs []int64) (map[int64]string, []int64) {
	now := c.clock()
	key := make(map[int64]string, len(questionIDs))
	var missing []int64

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range questionIDs {
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			key[id] = entry.correct
			continue
		}
		missing = append(missing, id)
	}
	return key, missing
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// flightKey identifies a set of question ids independent of order.
func flightKey(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
