package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
)

func TestAnswerKeyCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := memory.NewStore()
	q := domain.Question{QuestionText: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: "4"}
	_ = store.CreateQuestion(ctx, &q)

	loader := &countingLoader{AnswerKeyLoader: store}
	cache := NewAnswerKeyCache(newClient(mr), loader, time.Minute)

	key, err := cache.AnswerKey(ctx, []int64{q.ID})
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if key[q.ID] != "4" {
		t.Fatalf("expected 4, got %q", key[q.ID])
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if got, _ := mr.Get("quiz:answer:1"); got != "4" {
		t.Fatalf("expected cached key, got %q", got)
	}
	if ttl := mr.TTL("quiz:answer:1"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl within jitter bounds, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = cache.AnswerKey(ctx, []int64{q.ID})
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	if err := cache.Invalidate(ctx, q.ID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:answer:1") {
		t.Fatalf("expected key removed")
	}
}

func TestAnswerKeyCacheEntriesExpireIndependently(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := memory.NewStore()
	for _, correct := range []string{"a", "b"} {
		q := domain.Question{QuestionText: "q", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: correct}
		_ = store.CreateQuestion(ctx, &q)
	}
	cache := NewAnswerKeyCache(newClient(mr), store, time.Minute)

	if _, err := cache.AnswerKey(ctx, []int64{1}); err != nil {
		t.Fatalf("load first: %v", err)
	}
	mr.FastForward(40 * time.Second)
	if _, err := cache.AnswerKey(ctx, []int64{2}); err != nil {
		t.Fatalf("load second: %v", err)
	}
	mr.FastForward(40 * time.Second)

	if mr.Exists("quiz:answer:1") {
		t.Fatalf("expected first entry expired despite later loads")
	}
	if got, _ := mr.Get("quiz:answer:2"); got != "b" {
		t.Fatalf("expected second entry still cached, got %q", got)
	}
}

type countingLoader struct {
	AnswerKeyLoader
	calls int
}

func (l *countingLoader) LoadAnswerKey(ctx context.Context, ids []int64) (map[int64]string, error) {
	l.calls++
	return l.AnswerKeyLoader.LoadAnswerKey(ctx, ids)
}
