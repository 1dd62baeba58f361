package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unisphere/exam-backend/internal/config"
	"github.com/unisphere/exam-backend/internal/model"
)

// ExamPaperCache stores rendered exam papers as JSON in Redis.
type ExamPaperCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewExamPaperCache creates a new ExamPaperCache.
func NewExamPaperCache(rdb *redis.Client, ttl time.Duration) *ExamPaperCache {
	return &ExamPaperCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached paper. ok is false on a miss.
func (c *ExamPaperCache) Get(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, bool, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get paper: %w", err)
	}

	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, false, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, true, nil
}

// Set stores the paper with the configured TTL.
func (c *ExamPaperCache) Set(ctx context.Context, paper *model.ExamPaper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.ExamPaperKey(paper.ID.String()), data, c.ttl).Err()
}

// Invalidate drops the cached paper.
func (c *ExamPaperCache) Invalidate(ctx context.Context, examID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID.String())).Err()
}
