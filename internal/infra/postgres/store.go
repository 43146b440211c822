package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"quiz-arena-service/internal/domain"
)

// Store implements the app repositories on Postgres. Writes go through bun
// so multi-statement changes share a transaction; read-side queries
// (question lookups, reporting) run on a pgx pool.
type Store struct {
	db   *bun.DB
	pool *pgxpool.Pool
}

func NewStore(db *bun.DB, pool *pgxpool.Pool) *Store {
	return &Store{db: db, pool: pool}
}

// Open connects both the bun handle and the pgx pool to dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(OpenBun(dsn), pool), nil
}

// OpenBun returns a bun handle over the pgdriver connector.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (s *Store) Close() error {
	s.pool.Close()
	return s.db.Close()
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	FullName     string    `bun:"full_name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	QuizStatus   string    `bun:"quiz_status,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		FullName:     m.FullName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		QuizStatus:   domain.QuizStatus(m.QuizStatus),
		CreatedAt:    m.CreatedAt,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            int64     `bun:"id,pk,autoincrement"`
	QuestionText  string    `bun:"question_text,notnull"`
	OptionA       string    `bun:"option_a,notnull"`
	OptionB       string    `bun:"option_b,notnull"`
	OptionC       string    `bun:"option_c,notnull"`
	OptionD       string    `bun:"option_d,notnull"`
	CorrectOption string    `bun:"correct_option,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type attemptModel struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	ID                int64      `bun:"id,pk,autoincrement"`
	UserID            int64      `bun:"user_id,notnull"`
	ShuffledQuestions []int64    `bun:"shuffled_questions,type:jsonb,notnull"`
	Status            string     `bun:"status,notnull"`
	Score             *int       `bun:"score"`
	CreatedAt         time.Time  `bun:"created_at,notnull"`
	EndedAt           *time.Time `bun:"ended_at"`
}

func (m attemptModel) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:          m.ID,
		UserID:      m.UserID,
		QuestionIDs: m.ShuffledQuestions,
		Status:      domain.AttemptStatus(m.Status),
		Score:       m.Score,
		CreatedAt:   m.CreatedAt,
		EndedAt:     m.EndedAt,
	}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
