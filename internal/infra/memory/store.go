package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"
)

// Store is an in-process implementation of the user, question, attempt and
// report repositories. A single mutex makes every method atomic, which
// gives the same guarantees the Postgres store gets from transactions.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time

	nextUserID     int64
	nextQuestionID int64
	nextAttemptID  int64

	users     map[int64]domain.User
	emails    map[string]int64
	questions map[int64]domain.Question
	attempts  map[int64]domain.Attempt
	active    map[int64]int64 // user id -> started attempt id
}

func NewStore() *Store {
	return &Store{
		clock:     time.Now,
		users:     make(map[int64]domain.User),
		emails:    make(map[string]int64),
		questions: make(map[int64]domain.Question),
		attempts:  make(map[int64]domain.Attempt),
		active:    make(map[int64]int64),
	}
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.clock = now
	return s
}

func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.clock()
	s.users[u.ID] = *u
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) ListQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	// newest first; ids are monotonic so they break timestamp ties
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateQuestion(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuestionID++
	q.ID = s.nextQuestionID
	q.CreatedAt = s.clock()
	s.questions[q.ID] = *q
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) CountQuestions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions), nil
}

func (s *Store) QuestionIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.questions))
	for id := range s.questions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) FindQuestions(_ context.Context, ids []int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]struct{}, len(ids))
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if q, ok := s.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// LoadAnswerKey implements AnswerKeyLoader.
func (s *Store) LoadAnswerKey(_ context.Context, ids []int64) (map[int64]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := make(map[int64]string, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			key[id] = q.CorrectOption
		}
	}
	return key, nil
}

func (s *Store) StartAttempt(_ context.Context, userID int64, questionIDs []int64, startedAt time.Time) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.Attempt{}, domain.ErrUserNotFound
	}
	if _, busy := s.active[userID]; busy {
		return domain.Attempt{}, domain.ErrAttemptInProgress
	}

	s.nextAttemptID++
	attempt := domain.Attempt{
		ID:          s.nextAttemptID,
		UserID:      userID,
		QuestionIDs: append([]int64(nil), questionIDs...),
		Status:      domain.AttemptStarted,
		CreatedAt:   startedAt,
	}
	s.attempts[attempt.ID] = attempt
	s.active[userID] = attempt.ID

	user.QuizStatus = domain.QuizStarted
	s.users[userID] = user
	return copyAttempt(attempt), nil
}

func (s *Store) ActiveAttempt(_ context.Context, userID int64) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[userID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return copyAttempt(s.attempts[id]), nil
}

func (s *Store) GetAttempt(_ context.Context, attemptID int64) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return copyAttempt(a), nil
}

func (s *Store) CompleteAttempt(_ context.Context, attemptID, userID int64, score int, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok || a.UserID != userID {
		return domain.ErrAttemptNotFound
	}
	if a.Status != domain.AttemptStarted {
		return domain.ErrAttemptClosed
	}
	a.Status = domain.AttemptCompleted
	a.Score = &score
	a.EndedAt = &endedAt
	s.attempts[attemptID] = a
	delete(s.active, userID)

	if u, ok := s.users[userID]; ok {
		u.QuizStatus = domain.QuizCompleted
		s.users[userID] = u
	}
	return nil
}

func (s *Store) Disqualify(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if id, busy := s.active[userID]; busy {
		delete(s.attempts, id)
		delete(s.active, userID)
	}
	u.QuizStatus = domain.QuizDisqualified
	s.users[userID] = u
	return nil
}

func (s *Store) CountParticipants(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Role == domain.RoleStudent {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountCompletedAttempts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.attempts {
		if a.Status == domain.AttemptCompleted && s.users[a.UserID].QuizStatus != domain.QuizDisqualified {
			n++
		}
	}
	return n, nil
}

func (s *Store) Results(_ context.Context, limit int) ([]domain.ResultRow, error) {
	s.mu.RLock()
	rows := make([]domain.ResultRow, 0)
	for _, a := range s.attempts {
		if a.Status != domain.AttemptCompleted || a.Score == nil || a.EndedAt == nil {
			continue
		}
		u := s.users[a.UserID]
		if u.QuizStatus == domain.QuizDisqualified {
			continue
		}
		rows = append(rows, domain.ResultRow{
			AttemptID: a.ID,
			FullName:  u.FullName,
			Email:     u.Email,
			Score:     *a.Score,
			StartedAt: a.CreatedAt,
			EndedAt:   *a.EndedAt,
		})
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if !rows[i].EndedAt.Equal(rows[j].EndedAt) {
			return rows[i].EndedAt.Before(rows[j].EndedAt)
		}
		return rows[i].AttemptID < rows[j].AttemptID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func copyAttempt(a domain.Attempt) domain.Attempt {
	a.QuestionIDs = append([]int64(nil), a.QuestionIDs...)
	return a
}
