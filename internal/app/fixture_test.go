package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
)

type fixture struct {
	store    *memory.Store
	sessions *memory.SessionStore
	feed     *app.LeaderboardFeed
	auth     *app.AuthService
	quiz     *app.QuizService
	admin    *app.AdminService
}

func newFixture(t *testing.T, quizLength int) *fixture {
	t.Helper()
	store := memory.NewStore()
	sessions := memory.NewSessionStore()
	answerKeys := memory.NewAnswerKeyCache(store, time.Minute)
	feed := app.NewLeaderboardFeed(store)
	return &fixture{
		store:    store,
		sessions: sessions,
		feed:     feed,
		auth:     app.NewAuthService(store, sessions, app.NewBcryptHasher(bcrypt.MinCost), time.Hour),
		quiz:     app.NewQuizService(store, store, store, answerKeys, quizLength).WithListener(feed),
		admin:    app.NewAdminService(store, store, store, store, sessions, answerKeys, feed),
	}
}

func (f *fixture) student(t *testing.T, email string) domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), app.RegisterInput{FullName: "Student " + email, Email: email, Password: "secret"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

// seedQuestions adds n questions whose correct option is "right-<i>".
func (f *fixture) seedQuestions(t *testing.T, n int) []domain.Question {
	t.Helper()
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		q, err := f.admin.CreateQuestion(context.Background(), app.QuestionInput{
			QuestionText:  fmt.Sprintf("question %d", i),
			OptionA:       fmt.Sprintf("right-%d", i),
			OptionB:       "wrong-b",
			OptionC:       "wrong-c",
			OptionD:       "wrong-d",
			CorrectOption: fmt.Sprintf("right-%d", i),
		})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		out = append(out, q)
	}
	return out
}
