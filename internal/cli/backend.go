package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/config"
	"quiz-arena-service/internal/infra/memory"
	"quiz-arena-service/internal/infra/postgres"
	redisinfra "quiz-arena-service/internal/infra/redis"
	"quiz-arena-service/internal/logger"
)

// backend is satisfied by both the Postgres and the in-memory store.
type backend interface {
	app.UserRepository
	app.QuestionRepository
	app.AttemptRepository
	app.ReportRepository
	LoadAnswerKey(ctx context.Context, questionIDs []int64) (map[int64]string, error)
}

// services bundles the use cases built from a config.
type services struct {
	auth     *app.AuthService
	quiz     *app.QuizService
	admin    *app.AdminService
	sweeper  *memory.SessionStore
	closeFns []func() error
}

func (s *services) Close() {
	for i := len(s.closeFns) - 1; i >= 0; i-- {
		_ = s.closeFns[i]()
	}
}

func openPostgres(ctx context.Context, cfg config.Config) (*postgres.Store, error) {
	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres url not configured")
	}
	return postgres.Open(ctx, cfg.Postgres.URL)
}

func buildServices(ctx context.Context, cfg config.Config, log *logger.Logger) (*services, error) {
	svc := &services{}

	var store backend
	if cfg.Postgres.URL != "" {
		pg, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		svc.closeFns = append(svc.closeFns, pg.Close)
		store = pg
	} else {
		log.Warn("postgres not configured, using in-memory store; data is lost on restart")
		store = memory.NewStore()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closeFns = append(svc.closeFns, redisClient.Close)
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 12*time.Hour)
	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		local := memory.NewSessionStore()
		svc.sweeper = local
		sessions = local
	}

	answerTTL := config.TTLDuration(cfg.Quiz.AnswerCacheTTL, 10*time.Minute)
	var answerKeys app.AnswerKeyRepository
	if redisClient != nil {
		answerKeys = redisinfra.NewAnswerKeyCache(redisClient, store, answerTTL)
	} else {
		answerKeys = memory.NewAnswerKeyCache(store, answerTTL)
	}

	feed := app.NewLeaderboardFeed(store)
	svc.auth = app.NewAuthService(store, sessions, app.NewBcryptHasher(cfg.Auth.BcryptCost), sessionTTL)
	svc.quiz = app.NewQuizService(store, store, store, answerKeys, cfg.Quiz.Length).WithListener(feed)
	svc.admin = app.NewAdminService(store, store, store, store, sessions, answerKeys, feed)
	return svc, nil
}
