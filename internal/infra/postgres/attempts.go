package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"quiz-arena-service/internal/domain"
)

// StartAttempt flips the user to started and inserts the attempt in one
// transaction. The partial unique index on attempts(user_id) WHERE
// status = 'started' rejects a second concurrent attempt.
func (s *Store) StartAttempt(ctx context.Context, userID int64, questionIDs []int64, startedAt time.Time) (domain.Attempt, error) {
	m := &attemptModel{
		UserID:            userID,
		ShuffledQuestions: questionIDs,
		Status:            string(domain.AttemptStarted),
		CreatedAt:         startedAt,
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*userModel)(nil)).
			Set("quiz_status = ?", string(domain.QuizStarted)).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrUserNotFound
		}
		_, err = tx.NewInsert().Model(m).Returning("id").Exec(ctx)
		return err
	})
	if isUniqueViolation(err) {
		return domain.Attempt{}, domain.ErrAttemptInProgress
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) ActiveAttempt(ctx context.Context, userID int64) (domain.Attempt, error) {
	var m attemptModel
	err := s.db.NewSelect().
		Model(&m).
		Where("user_id = ?", userID).
		Where("status = ?", string(domain.AttemptStarted)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID int64) (domain.Attempt, error) {
	var m attemptModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	return m.toDomain(), nil
}

// CompleteAttempt writes the score only while the attempt is still started,
// so the score is set exactly once.
func (s *Store) CompleteAttempt(ctx context.Context, attemptID, userID int64, score int, endedAt time.Time) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*attemptModel)(nil)).
			Set("status = ?", string(domain.AttemptCompleted)).
			Set("score = ?", score).
			Set("ended_at = ?", endedAt).
			Where("id = ?", attemptID).
			Where("user_id = ?", userID).
			Where("status = ?", string(domain.AttemptStarted)).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrAttemptClosed
		}
		_, err = tx.NewUpdate().
			Model((*userModel)(nil)).
			Set("quiz_status = ?", string(domain.QuizCompleted)).
			Where("id = ?", userID).
			Exec(ctx)
		return err
	})
}

func (s *Store) Disqualify(ctx context.Context, userID int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*userModel)(nil)).
			Set("quiz_status = ?", string(domain.QuizDisqualified)).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrUserNotFound
		}
		_, err = tx.NewDelete().
			Model((*attemptModel)(nil)).
			Where("user_id = ?", userID).
			Where("status = ?", string(domain.AttemptStarted)).
			Exec(ctx)
		return err
	})
}
