package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
	appErrors "github.com/attendr/attendr-api/pkg/errors"
)

// PromptStore holds pending check-in prompts in Redis, keyed per student and
// course with a TTL so stale prompts vanish after the class window passes.
type PromptStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPromptStore constructs the store. A nil client disables prompting.
func NewPromptStore(client *redis.Client, logger *zap.Logger) *PromptStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptStore{client: client, logger: logger}
}

func promptKey(studentID, courseID string) string {
	return fmt.Sprintf("prompt:%s:%s", studentID, courseID)
}

// Put stores a prompt unless one is already pending for the pair. The SETNX
// semantics make repeated poller ticks idempotent.
func (s *PromptStore) Put(ctx context.Context, prompt models.CheckInPrompt, ttl time.Duration) error {
	if s.client == nil {
		return appErrors.ErrCacheMiss
	}
	payload, err := json.Marshal(prompt)
	if err != nil {
		return fmt.Errorf("marshal prompt: %w", err)
	}
	key := promptKey(prompt.StudentID, prompt.CourseID)
	if err := s.client.SetNX(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return nil
}

// ListByStudent returns all pending prompts for a student.
func (s *PromptStore) ListByStudent(ctx context.Context, studentID string) ([]models.CheckInPrompt, error) {
	if s.client == nil {
		return nil, nil
	}
	pattern := promptKey(studentID, "*")
	prompts := []models.CheckInPrompt{}
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("redis get %s: %w", iter.Val(), err)
		}
		var prompt models.CheckInPrompt
		if err := json.Unmarshal(raw, &prompt); err != nil {
			s.logger.Warn("dropping malformed prompt", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		prompts = append(prompts, prompt)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return prompts, nil
}

// Delete removes a pending prompt, either after the student resolves it or
// when they dismiss it.
func (s *PromptStore) Delete(ctx context.Context, studentID, courseID string) error {
	if s.client == nil {
		return nil
	}
	key := promptKey(studentID, courseID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
