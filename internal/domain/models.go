package domain

import "time"

// Role is the access level carried by a user and their sessions.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// QuizStatus gates whether a user may start (or repeat) the quiz.
type QuizStatus string

const (
	QuizUnattempted  QuizStatus = "unattempted"
	QuizStarted      QuizStatus = "started"
	QuizCompleted    QuizStatus = "completed"
	QuizDisqualified QuizStatus = "disqualified"
)

// Locked reports whether the status forbids any further quiz activity.
func (s QuizStatus) Locked() bool {
	return s == QuizCompleted || s == QuizDisqualified
}

// AttemptStatus is the lifecycle state of a single attempt.
type AttemptStatus string

const (
	AttemptStarted   AttemptStatus = "started"
	AttemptCompleted AttemptStatus = "completed"
)

// User is a registered participant or administrator.
type User struct {
	ID           int64      `json:"id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	QuizStatus   QuizStatus `json:"quizStatus"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Question models an MCQ question with four options; CorrectOption holds
// the text of the right option.
type Question struct {
	ID            int64     `json:"id"`
	QuestionText  string    `json:"questionText"`
	OptionA       string    `json:"optionA"`
	OptionB       string    `json:"optionB"`
	OptionC       string    `json:"optionC"`
	OptionD       string    `json:"optionD"`
	CorrectOption string    `json:"correctOption"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Options returns the four option texts in display order.
func (q Question) Options() []string {
	return []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// View strips the correct option so the question can be shown to students.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
	}
}

// QuestionView is the student-facing projection of a question.
type QuestionView struct {
	ID           int64  `json:"id"`
	QuestionText string `json:"questionText"`
	OptionA      string `json:"optionA"`
	OptionB      string `json:"optionB"`
	OptionC      string `json:"optionC"`
	OptionD      string `json:"optionD"`
}

// Attempt is one student's pass through the quiz. QuestionIDs is fixed at
// creation and is the authoritative order for the attempt.
type Attempt struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"userId"`
	QuestionIDs []int64       `json:"questionIds"`
	Status      AttemptStatus `json:"status"`
	Score       *int          `json:"score,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	EndedAt     *time.Time    `json:"endedAt,omitempty"`
}

// Session binds an opaque bearer token to a user and role.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ResultRow is one completed attempt as shown in admin reporting.
type ResultRow struct {
	AttemptID int64     `json:"attemptId"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Score     int       `json:"score"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// Metrics aggregates the admin dashboard numbers.
type Metrics struct {
	TotalParticipants int         `json:"totalParticipants"`
	TotalQuestions    int         `json:"totalQuestions"`
	CompletedQuizzes  int         `json:"completedQuizzes"`
	Results           []ResultRow `json:"results"`
}

// Leaderboard captures the ordered top results.
type Leaderboard struct {
	Entries   []ResultRow `json:"entries"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
