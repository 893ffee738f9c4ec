package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/linguadesk/quiz-session-service/internal/models"
)

// RedisStore keeps each quiz namespace as a Redis hash: one field per
// answer key, JSON-encoded values.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, quizID string) (models.AnswerSet, error) {
	fields, err := s.client.HGetAll(ctx, Namespace(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read answer cache: %w", err)
	}

	answers := make(models.AnswerSet, len(fields))
	for field, raw := range fields {
		var value models.AnswerValue
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// A corrupt entry loses one answer, not the whole cache.
			continue
		}
		answers[models.AnswerKey(field)] = value
	}
	return answers, nil
}

func (s *RedisStore) MergeAndPersist(ctx context.Context, quizID string, partial models.AnswerSet) error {
	if len(partial) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(partial))
	for key, value := range partial {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode answer %q: %w", key, err)
		}
		fields[string(key)] = raw
	}

	if err := s.client.HSet(ctx, Namespace(quizID), fields).Err(); err != nil {
		return fmt.Errorf("failed to persist answers: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, quizID string) error {
	if err := s.client.Del(ctx, Namespace(quizID)).Err(); err != nil {
		return fmt.Errorf("failed to clear answer cache: %w", err)
	}
	return nil
}
