package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quiz-arena-service/internal/domain"
)

// DefaultQuizLength is the number of questions in every attempt unless configured otherwise.
const DefaultQuizLength = 50

// startTimeout bounds a shared start that no longer follows any single caller.
const startTimeout = 10 * time.Second

// CompletionListener is told whenever an attempt is scored.
type CompletionListener interface {
	AttemptCompleted(ctx context.Context)
}

// QuizService contains the attempt lifecycle: start, read questions, submit.
type QuizService struct {
	users      UserRepository
	questions  QuestionRepository
	attempts   AttemptRepository
	answerKeys AnswerKeyRepository
	listener   CompletionListener
	quizLength int
	now        func() time.Time

	starts singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuizService(users UserRepository, questions QuestionRepository, attempts AttemptRepository, answerKeys AnswerKeyRepository, quizLength int) *QuizService {
	if quizLength <= 0 {
		quizLength = DefaultQuizLength
	}
	return &QuizService{
		users:      users,
		questions:  questions,
		attempts:   attempts,
		answerKeys: answerKeys,
		quizLength: quizLength,
		now:        time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithListener registers l to be notified after each completed attempt.
func (s *QuizService) WithListener(l CompletionListener) *QuizService {
	s.listener = l
	return s
}

// WithClock swaps the time source; tests only.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// QuizLength reports the configured number of questions per attempt.
func (s *QuizService) QuizLength() int {
	return s.quizLength
}

// StartQuiz creates the user's attempt with a freshly drawn question order,
// or returns the attempt already in progress. Concurrent calls for the same
// user share one execution, which is detached from any one caller's
// cancellation; each caller still stops waiting when its own ctx ends.
func (s *QuizService) StartQuiz(ctx context.Context, userID int64) (domain.Attempt, error) {
	ch := s.starts.DoChan(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		startCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startTimeout)
		defer cancel()
		return s.startQuiz(startCtx, userID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.Attempt{}, res.Err
		}
		return res.Val.(domain.Attempt), nil
	case <-ctx.Done():
		return domain.Attempt{}, ctx.Err()
	}
}

func (s *QuizService) startQuiz(ctx context.Context, userID int64) (domain.Attempt, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Attempt{}, domain.ErrUnauthorized
		}
		return domain.Attempt{}, fmt.Errorf("load user: %w", err)
	}
	if user.QuizStatus.Locked() {
		return domain.Attempt{}, domain.ErrQuizLocked
	}

	active, err := s.attempts.ActiveAttempt(ctx, userID)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		return domain.Attempt{}, fmt.Errorf("load active attempt: %w", err)
	}

	ids, err := s.questions.QuestionIDs(ctx)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load question ids: %w", err)
	}
	if len(ids) < s.quizLength {
		return domain.Attempt{}, fmt.Errorf("%w: %d available, %d required", domain.ErrNotEnoughQuestions, len(ids), s.quizLength)
	}

	attempt, err := s.attempts.StartAttempt(ctx, userID, s.draw(ids), s.now())
	if errors.Is(err, domain.ErrAttemptInProgress) {
		// Another instance won the race; resume its attempt.
		return s.attempts.ActiveAttempt(ctx, userID)
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("start attempt: %w", err)
	}
	return attempt, nil
}

// draw picks quizLength distinct ids uniformly at random, in random order,
// using a partial Fisher-Yates shuffle over a copy of pool.
func (s *QuizService) draw(pool []int64) []int64 {
	ids := make([]int64, len(pool))
	copy(ids, pool)

	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	for i := 0; i < s.quizLength; i++ {
		j := i + s.rnd.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:s.quizLength]
}

// GetQuestions returns the questions for ids in exactly the requested order,
// without their correct option. Ids with no matching row are skipped.
func (s *QuizService) GetQuestions(ctx context.Context, ids []int64) ([]domain.QuestionView, error) {
	if len(ids) == 0 {
		return []domain.QuestionView{}, nil
	}
	rows, err := s.questions.FindQuestions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	byID := make(map[int64]domain.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}
	views := make([]domain.QuestionView, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			views = append(views, q.View())
		}
	}
	return views, nil
}

// SubmitAnswers scores the attempt once and completes it. Re-submitting a
// completed attempt is acknowledged without rescoring. The score is never
// returned to the caller.
func (s *QuizService) SubmitAnswers(ctx context.Context, attemptID, userID int64, answers map[int64]string) error {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		return domain.ErrAttemptNotFound
	}
	if err != nil {
		return fmt.Errorf("load attempt: %w", err)
	}
	if attempt.UserID != userID {
		return domain.ErrAttemptNotFound
	}
	if attempt.Status != domain.AttemptStarted {
		return nil
	}

	key, err := s.answerKeys.AnswerKey(ctx, attempt.QuestionIDs)
	if err != nil {
		return fmt.Errorf("load answer key: %w", err)
	}
	score := Score(attempt.QuestionIDs, key, answers)

	err = s.attempts.CompleteAttempt(ctx, attempt.ID, userID, score, s.now())
	if errors.Is(err, domain.ErrAttemptClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	if s.listener != nil {
		s.listener.AttemptCompleted(ctx)
	}
	return nil
}

// Score counts the positions of order whose submitted answer equals the
// correct option. Missing answers and questions absent from key are wrong.
func Score(order []int64, key map[int64]string, answers map[int64]string) int {
	score := 0
	for _, id := range order {
		submitted, answered := answers[id]
		correct, known := key[id]
		if answered && known && submitted == correct {
			score++
		}
	}
	return score
}
