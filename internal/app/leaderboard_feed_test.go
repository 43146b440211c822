package app_test

import (
	"context"
	"testing"
	"time"
)

func TestLeaderboardFeedPushesOnCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	f.seedQuestions(t, 1)

	updates, cancel, err := f.feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	select {
	case lb := <-updates:
		if len(lb.Entries) != 0 {
			t.Fatalf("expected empty initial board, got %+v", lb.Entries)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	u := f.student(t, "live@example.com")
	a, err := f.quiz.StartQuiz(ctx, u.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.quiz.SubmitAnswers(ctx, a.ID, u.ID, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case lb := <-updates:
		if len(lb.Entries) != 1 || lb.Entries[0].Email != "live@example.com" {
			t.Fatalf("unexpected board %+v", lb.Entries)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update after completion")
	}
}

func TestLeaderboardFeedCancelClosesChannel(t *testing.T) {
	f := newFixture(t, 1)
	updates, cancel, err := f.feed.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-updates
	cancel()
	cancel()
	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel")
	}
}
