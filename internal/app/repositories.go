package app

import (
	"context"
	"time"

	"quiz-arena-service/internal/domain"
)

// UserRepository persists users. Email uniqueness is enforced by the store.
type UserRepository interface {
	// CreateUser inserts u and fills in its ID and CreatedAt. Returns
	// domain.ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// QuestionRepository holds the question pool.
type QuestionRepository interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	CreateQuestion(ctx context.Context, q *domain.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	CountQuestions(ctx context.Context) (int, error)
	QuestionIDs(ctx context.Context) ([]int64, error)
	// FindQuestions returns the rows matching ids in no particular order.
	FindQuestions(ctx context.Context, ids []int64) ([]domain.Question, error)
}

// AttemptRepository owns attempt rows together with the user quiz_status
// they drive; every mutating method is atomic.
type AttemptRepository interface {
	// StartAttempt flips the user to started and inserts the attempt.
	// Returns domain.ErrAttemptInProgress if the user already has one.
	StartAttempt(ctx context.Context, userID int64, questionIDs []int64, startedAt time.Time) (domain.Attempt, error)
	ActiveAttempt(ctx context.Context, userID int64) (domain.Attempt, error)
	GetAttempt(ctx context.Context, attemptID int64) (domain.Attempt, error)
	// CompleteAttempt moves a started attempt to completed with score and
	// marks the user completed. Returns domain.ErrAttemptClosed if the
	// attempt is no longer started.
	CompleteAttempt(ctx context.Context, attemptID, userID int64, score int, endedAt time.Time) error
	// Disqualify marks the user disqualified and drops any started attempt.
	Disqualify(ctx context.Context, userID int64) error
}

// ReportRepository serves the read-only admin aggregates. Results are
// ordered by score desc, then end time asc; limit <= 0 means no limit.
type ReportRepository interface {
	CountParticipants(ctx context.Context) (int, error)
	CountCompletedAttempts(ctx context.Context) (int, error)
	Results(ctx context.Context, limit int) ([]domain.ResultRow, error)
}

// SessionRepository abstracts the session registry (in-memory, Redis).
type SessionRepository interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, token string) (domain.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// AnswerKeyRepository returns the correct option per question id, typically
// from a cache in front of the question store.
type AnswerKeyRepository interface {
	AnswerKey(ctx context.Context, questionIDs []int64) (map[int64]string, error)
	Invalidate(ctx context.Context, questionID int64) error
}
