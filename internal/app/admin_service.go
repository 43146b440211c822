package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz-arena-service/internal/domain"
)

// QuestionInput carries the six question fields.
type QuestionInput struct {
	QuestionText  string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
}

// AdminService is the admin-only surface: reporting, question CRUD and disqualification.
type AdminService struct {
	users      UserRepository
	questions  QuestionRepository
	attempts   AttemptRepository
	reports    ReportRepository
	sessions   SessionRepository
	answerKeys AnswerKeyRepository
	feed       *LeaderboardFeed
}

func NewAdminService(users UserRepository, questions QuestionRepository, attempts AttemptRepository, reports ReportRepository, sessions SessionRepository, answerKeys AnswerKeyRepository, feed *LeaderboardFeed) *AdminService {
	return &AdminService{
		users:      users,
		questions:  questions,
		attempts:   attempts,
		reports:    reports,
		sessions:   sessions,
		answerKeys: answerKeys,
		feed:       feed,
	}
}

// Metrics returns participant, question and completion counts plus every completed result.
func (s *AdminService) Metrics(ctx context.Context) (domain.Metrics, error) {
	participants, err := s.reports.CountParticipants(ctx)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("count participants: %w", err)
	}
	questions, err := s.questions.CountQuestions(ctx)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("count questions: %w", err)
	}
	completed, err := s.reports.CountCompletedAttempts(ctx)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("count completed attempts: %w", err)
	}
	results, err := s.reports.Results(ctx, 0)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("load results: %w", err)
	}
	if results == nil {
		results = []domain.ResultRow{}
	}
	return domain.Metrics{
		TotalParticipants: participants,
		TotalQuestions:    questions,
		CompletedQuizzes:  completed,
		Results:           results,
	}, nil
}

// Leaderboard returns the top results.
func (s *AdminService) Leaderboard(ctx context.Context) ([]domain.ResultRow, error) {
	lb, err := s.feed.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	if lb.Entries == nil {
		return []domain.ResultRow{}, nil
	}
	return lb.Entries, nil
}

// Feed exposes the live leaderboard feed.
func (s *AdminService) Feed() *LeaderboardFeed {
	return s.feed
}

func (s *AdminService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	return questions, nil
}

// CreateQuestion validates and stores a question. The correct option must
// match one of the four option texts.
func (s *AdminService) CreateQuestion(ctx context.Context, in QuestionInput) (domain.Question, error) {
	q := domain.Question{
		QuestionText:  strings.TrimSpace(in.QuestionText),
		OptionA:       strings.TrimSpace(in.OptionA),
		OptionB:       strings.TrimSpace(in.OptionB),
		OptionC:       strings.TrimSpace(in.OptionC),
		OptionD:       strings.TrimSpace(in.OptionD),
		CorrectOption: strings.TrimSpace(in.CorrectOption),
	}
	if err := ValidateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.CreateQuestion(ctx, &q); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// ValidateQuestion checks that all six fields are set and the correct option is one of the four.
func ValidateQuestion(q domain.Question) error {
	if q.QuestionText == "" || q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" || q.CorrectOption == "" {
		return fmt.Errorf("%w: all question fields are required", domain.ErrInvalidInput)
	}
	for _, opt := range q.Options() {
		if opt == q.CorrectOption {
			return nil
		}
	}
	return fmt.Errorf("%w: correctOption must match one of the four options", domain.ErrInvalidInput)
}

// DeleteQuestion removes a question and evicts it from the answer key cache.
func (s *AdminService) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.questions.DeleteQuestion(ctx, id); err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return domain.ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	if err := s.answerKeys.Invalidate(ctx, id); err != nil {
		return fmt.Errorf("invalidate answer key: %w", err)
	}
	return nil
}

// Disqualify locks a student out of the quiz, drops their running attempt
// and revokes their sessions. A finished attempt stays stored but no longer
// counts in reporting, so live leaderboards are refreshed.
func (s *AdminService) Disqualify(ctx context.Context, userID int64) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if user.Role != domain.RoleStudent {
		return fmt.Errorf("%w: only students can be disqualified", domain.ErrInvalidInput)
	}
	if err := s.attempts.Disqualify(ctx, userID); err != nil {
		return fmt.Errorf("disqualify: %w", err)
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.feed.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh leaderboard: %w", err)
	}
	return nil
}
