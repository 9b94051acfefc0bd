package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/models"
)

// CheckInCache keeps a per-day "already checked in" marker in Redis so the
// poller can gate prompts without a database round trip on every tick. The
// attendance table remains the source of truth; a missing marker only means
// the caller must fall through to the store.
type CheckInCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCheckInCache constructs the cache. A nil client disables it.
func NewCheckInCache(client *redis.Client, logger *zap.Logger) *CheckInCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckInCache{client: client, logger: logger}
}

func checkInKey(studentID, courseID string, day time.Time) string {
	return fmt.Sprintf("checkedIn:%s:%s:%s", studentID, courseID, models.DayOf(day).Format("2006-01-02"))
}

// MarkCheckedIn records the marker, expiring at the end of the UTC day.
func (c *CheckInCache) MarkCheckedIn(ctx context.Context, studentID, courseID string, day time.Time) error {
	if c.client == nil {
		return nil
	}
	key := checkInKey(studentID, courseID, day)
	ttl := time.Until(models.DayOf(day).AddDate(0, 0, 1))
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := c.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// HasCheckedIn reports whether the marker exists for the given day.
func (c *CheckInCache) HasCheckedIn(ctx context.Context, studentID, courseID string, day time.Time) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	key := checkInKey(studentID, courseID, day)
	if err := c.client.Get(ctx, key).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return true, nil
}
