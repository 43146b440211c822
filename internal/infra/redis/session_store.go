package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-arena-service/internal/domain"
)

// SessionStore is a Redis-backed implementation of app.SessionRepository.
// Sessions are stored as JSON under session:{token} with a TTL matching
// their expiry; session:user:{id} indexes a user's tokens for revocation.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
}

// NewSessionStore uses ttl for sessions that carry no expiry of their own.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl, clock: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.clock())
		if ttl <= 0 {
			return nil
		}
	}

	userKey := s.userKey(session.UserID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(session.Token), data, ttl)
		pipe.SAdd(ctx, userKey, session.Token)
		if ttl > 0 {
			pipe.Expire(ctx, userKey, ttl)
		}
		return nil
	})
	return err
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	session, err := s.Get(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(token))
		pipe.SRem(ctx, s.userKey(session.UserID), token)
		return nil
	})
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID int64) error {
	userKey := s.userKey(userID)
	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.key(token))
	}
	keys = append(keys, userKey)
	return s.client.Del(ctx, keys...).Err()
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}

func (s *SessionStore) userKey(userID int64) string {
	return "session:user:" + strconv.FormatInt(userID, 10)
}
