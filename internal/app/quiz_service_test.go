package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
)

func TestStartQuizNeedsEnoughQuestions(t *testing.T) {
	f := newFixture(t, 5)
	f.seedQuestions(t, 4)
	u := f.student(t, "few@example.com")

	_, err := f.quiz.StartQuiz(context.Background(), u.ID)
	if !errors.Is(err, domain.ErrNotEnoughQuestions) {
		t.Fatalf("expected ErrNotEnoughQuestions, got %v", err)
	}
	user, _ := f.store.GetUser(context.Background(), u.ID)
	if user.QuizStatus != domain.QuizUnattempted {
		t.Fatalf("status changed on failed start: %s", user.QuizStatus)
	}
}

func TestStartQuizDrawsDistinctQuestionsAndResumes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	pool := f.seedQuestions(t, 12)
	u := f.student(t, "draw@example.com")

	attempt, err := f.quiz.StartQuiz(ctx, u.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(attempt.QuestionIDs) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(attempt.QuestionIDs))
	}
	known := make(map[int64]bool, len(pool))
	for _, q := range pool {
		known[q.ID] = true
	}
	seen := make(map[int64]bool)
	for _, id := range attempt.QuestionIDs {
		if !known[id] || seen[id] {
			t.Fatalf("unexpected or duplicate id %d in %v", id, attempt.QuestionIDs)
		}
		seen[id] = true
	}

	again, err := f.quiz.StartQuiz(ctx, u.ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if again.ID != attempt.ID {
		t.Fatalf("expected to resume attempt %d, got %d", attempt.ID, again.ID)
	}
	for i := range attempt.QuestionIDs {
		if again.QuestionIDs[i] != attempt.QuestionIDs[i] {
			t.Fatalf("question order not stable: %v vs %v", attempt.QuestionIDs, again.QuestionIDs)
		}
	}

	user, _ := f.store.GetUser(ctx, u.ID)
	if user.QuizStatus != domain.QuizStarted {
		t.Fatalf("expected started status, got %s", user.QuizStatus)
	}
}

func TestConcurrentStartsShareOneAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	f.seedQuestions(t, 6)
	u := f.student(t, "race@example.com")

	const callers = 16
	ids := make([]int64, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := f.quiz.StartQuiz(ctx, u.ID)
			ids[i], errs[i] = a.ID, err
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("expected one attempt, got %d and %d", ids[0], ids[i])
		}
	}
}

func TestStartQuizRefusedOnceLocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	f.seedQuestions(t, 2)
	u := f.student(t, "done@example.com")

	attempt, err := f.quiz.StartQuiz(ctx, u.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.quiz.SubmitAnswers(ctx, attempt.ID, u.ID, map[int64]string{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.quiz.StartQuiz(ctx, u.ID); !errors.Is(err, domain.ErrQuizLocked) {
		t.Fatalf("expected ErrQuizLocked, got %v", err)
	}
}

// reversingQuestions returns rows in the opposite order from the request.
type reversingQuestions struct {
	*memory.Store
}

func (r reversingQuestions) FindQuestions(ctx context.Context, ids []int64) ([]domain.Question, error) {
	rows, err := r.Store.FindQuestions(ctx, ids)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, err
}

func TestGetQuestionsKeepsRequestedOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	qs := f.seedQuestions(t, 3)
	quiz := app.NewQuizService(f.store, reversingQuestions{f.store}, f.store, memory.NewAnswerKeyCache(f.store, 0), 3)

	order := []int64{qs[2].ID, qs[0].ID, 999, qs[1].ID}
	views, err := quiz.GetQuestions(ctx, order)
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	want := []int64{qs[2].ID, qs[0].ID, qs[1].ID}
	if len(views) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(views))
	}
	for i, v := range views {
		if v.ID != want[i] {
			t.Fatalf("position %d: expected %d, got %d", i, want[i], v.ID)
		}
	}
	if views[0].OptionA != qs[2].OptionA {
		t.Fatalf("options not carried through: %+v", views[0])
	}
}

func TestScore(t *testing.T) {
	order := []int64{1, 2, 3}
	key := map[int64]string{1: "A", 2: "B", 3: "C"}

	if got := app.Score(order, key, map[int64]string{1: "A", 2: "X", 3: "C"}); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := app.Score(order, key, nil); got != 0 {
		t.Fatalf("expected 0 for no answers, got %d", got)
	}
	if got := app.Score(order, map[int64]string{1: "A"}, map[int64]string{1: "A", 2: "B"}); got != 1 {
		t.Fatalf("expected unknown questions to count as wrong, got %d", got)
	}
}

func TestSubmitAnswersScoresOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	qs := f.seedQuestions(t, 4)
	u := f.student(t, "submit@example.com")

	correct := make(map[int64]string, len(qs))
	for _, q := range qs {
		correct[q.ID] = q.CorrectOption
	}

	attempt, err := f.quiz.StartQuiz(ctx, u.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := map[int64]string{
		attempt.QuestionIDs[0]: correct[attempt.QuestionIDs[0]],
		attempt.QuestionIDs[1]: "wrong-b",
		attempt.QuestionIDs[2]: correct[attempt.QuestionIDs[2]],
	}
	if err := f.quiz.SubmitAnswers(ctx, attempt.ID, u.ID, answers); err != nil {
		t.Fatalf("submit: %v", err)
	}

	everything := make(map[int64]string)
	for id, c := range correct {
		everything[id] = c
	}
	if err := f.quiz.SubmitAnswers(ctx, attempt.ID, u.ID, everything); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	stored, err := f.store.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.Status != domain.AttemptCompleted || stored.Score == nil || *stored.Score != 2 {
		t.Fatalf("expected completed attempt with score 2, got %+v", stored)
	}
	if stored.EndedAt == nil || stored.EndedAt.Before(stored.CreatedAt) {
		t.Fatalf("bad end time: %+v", stored)
	}
	user, _ := f.store.GetUser(ctx, u.ID)
	if user.QuizStatus != domain.QuizCompleted {
		t.Fatalf("expected completed status, got %s", user.QuizStatus)
	}
}

func TestSubmitAnswersRejectsForeignAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	f.seedQuestions(t, 2)
	owner := f.student(t, "owner@example.com")
	other := f.student(t, "other@example.com")

	attempt, err := f.quiz.StartQuiz(ctx, owner.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.quiz.SubmitAnswers(ctx, attempt.ID, other.ID, nil); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
	if err := f.quiz.SubmitAnswers(ctx, 12345, owner.ID, nil); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound for unknown attempt, got %v", err)
	}
	stored, _ := f.store.GetAttempt(ctx, attempt.ID)
	if stored.Status != domain.AttemptStarted {
		t.Fatalf("attempt should still be running, got %s", stored.Status)
	}
}

func TestDeletedQuestionCountsAsWrong(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	qs := f.seedQuestions(t, 3)
	u := f.student(t, "deleted@example.com")

	attempt, err := f.quiz.StartQuiz(ctx, u.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := make(map[int64]string, len(qs))
	for _, q := range qs {
		answers[q.ID] = q.CorrectOption
	}
	if err := f.admin.DeleteQuestion(ctx, qs[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.quiz.SubmitAnswers(ctx, attempt.ID, u.ID, answers); err != nil {
		t.Fatalf("submit: %v", err)
	}
	stored, _ := f.store.GetAttempt(ctx, attempt.ID)
	if stored.Score == nil || *stored.Score != 2 {
		t.Fatalf("expected score 2, got %+v", stored.Score)
	}
}

// gatedUsers blocks GetUser until released and fails if its ctx was cancelled by then.
type gatedUsers struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedUsers) GetUser(ctx context.Context, id int64) (domain.User, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	return g.Store.GetUser(ctx, id)
}

func TestStartQuizSurvivesFirstCallerCancel(t *testing.T) {
	f := newFixture(t, 2)
	f.seedQuestions(t, 3)
	u := f.student(t, "gone@example.com")

	users := &gatedUsers{Store: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	quiz := app.NewQuizService(users, f.store, f.store, memory.NewAnswerKeyCache(f.store, time.Minute), 2)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := quiz.StartQuiz(firstCtx, u.ID)
		firstErr <- err
	}()
	<-users.entered

	type result struct {
		attempt domain.Attempt
		err     error
	}
	second := make(chan result, 1)
	go func() {
		a, err := quiz.StartQuiz(context.Background(), u.ID)
		second <- result{a, err}
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller cancelled, got %v", err)
	}
	close(users.release)

	select {
	case r := <-second:
		if r.err != nil {
			t.Fatalf("second caller: %v", r.err)
		}
		if len(r.attempt.QuestionIDs) != 2 {
			t.Fatalf("unexpected attempt %+v", r.attempt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
	if _, err := f.store.ActiveAttempt(context.Background(), u.ID); err != nil {
		t.Fatalf("expected attempt persisted, got %v", err)
	}
}
