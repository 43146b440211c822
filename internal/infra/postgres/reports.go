package postgres

import (
	"context"

	"quiz-arena-service/internal/domain"
)

func (s *Store) CountParticipants(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = $1`, string(domain.RoleStudent)).Scan(&n)
	return n, err
}

func (s *Store) CountCompletedAttempts(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM attempts a
		JOIN users u ON u.id = a.user_id
		WHERE a.status = $1 AND u.quiz_status <> $2`,
		string(domain.AttemptCompleted), string(domain.QuizDisqualified)).Scan(&n)
	return n, err
}

// Results lists completed attempts of students still in the competition,
// best score first; earlier finishers win ties.
func (s *Store) Results(ctx context.Context, limit int) ([]domain.ResultRow, error) {
	query := `
		SELECT a.id, u.full_name, u.email, a.score, a.created_at, a.ended_at
		FROM attempts a
		JOIN users u ON u.id = a.user_id
		WHERE a.status = $1 AND u.quiz_status <> $2
		ORDER BY a.score DESC, a.ended_at ASC, a.id ASC`
	args := []interface{}{string(domain.AttemptCompleted), string(domain.QuizDisqualified)}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ResultRow, 0)
	for rows.Next() {
		var r domain.ResultRow
		if err := rows.Scan(&r.AttemptID, &r.FullName, &r.Email, &r.Score, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
