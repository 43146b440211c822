package app

import (
	"context"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"
)

// LeaderboardSize is the number of rows on the leaderboard.
const LeaderboardSize = 10

// LeaderboardFeed fans leaderboard snapshots out to live admin subscribers.
type LeaderboardFeed struct {
	reports ReportRepository
	now     func() time.Time

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardFeed(reports ReportRepository) *LeaderboardFeed {
	return &LeaderboardFeed{
		reports:     reports,
		now:         time.Now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Snapshot loads the current top results.
func (f *LeaderboardFeed) Snapshot(ctx context.Context) (domain.Leaderboard, error) {
	rows, err := f.reports.Results(ctx, LeaderboardSize)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: rows, UpdatedAt: f.now()}, nil
}

// Subscribe returns a channel primed with the current leaderboard.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := f.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	ch <- initial
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

// AttemptCompleted refreshes subscribers in the background.
func (f *LeaderboardFeed) AttemptCompleted(ctx context.Context) {
	if f.subscriberCount() == 0 {
		return
	}
	go func() {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = f.Refresh(refreshCtx)
	}()
}

// Refresh loads a new snapshot and pushes it to every subscriber.
func (f *LeaderboardFeed) Refresh(ctx context.Context) error {
	lb, err := f.Snapshot(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcastLocked(lb)
	return nil
}

func (f *LeaderboardFeed) broadcastLocked(lb domain.Leaderboard) {
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: drop its oldest snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (f *LeaderboardFeed) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
