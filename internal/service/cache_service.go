package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
)

const statsKeyPrefix = "matricula:stats:"

// StatsCacheService is a Redis-backed read-through cache for enrollment
// statistics. Failures degrade to cache misses.
type StatsCacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsCacheService constructs StatsCacheService.
func NewStatsCacheService(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsCacheService{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached statistics for an enrollment, if present.
func (s *StatsCacheService) Get(ctx context.Context, enrollmentID string) (*models.EnrollmentStats, bool) {
	raw, err := s.client.Get(ctx, statsKeyPrefix+enrollmentID).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("stats cache read failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
		return nil, false
	}
	var stats models.EnrollmentStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("stats cache decode failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, false
	}
	return &stats, true
}

// Set stores the statistics under the configured TTL.
func (s *StatsCacheService) Set(ctx context.Context, enrollmentID string, stats *models.EnrollmentStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, statsKeyPrefix+enrollmentID, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}

// Invalidate drops the cached statistics after a mutation.
func (s *StatsCacheService) Invalidate(ctx context.Context, enrollmentID string) {
	if err := s.client.Del(ctx, statsKeyPrefix+enrollmentID).Err(); err != nil {
		s.logger.Warn("stats cache invalidate failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}
