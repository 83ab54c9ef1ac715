package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/league-draw/models"
)

const DefaultDrawTTL = time.Hour

// DrawCache stores finished draws as JSON.
//
// Key schema:
//
//	draw:{id}                  - JSON of the DrawRecord
//	draw:latest:{competition}  - id of the newest draw of a competition
type DrawCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDrawCache(c *Client, ttl time.Duration) *DrawCache {
	if ttl <= 0 {
		ttl = DefaultDrawTTL
	}
	return &DrawCache{rdb: c.rdb, ttl: ttl}
}

func drawKey(id string) string            { return "draw:" + id }
func latestKey(competition string) string { return "draw:latest:" + competition }

// Set stores record and marks it as the latest draw of its competition.
func (dc *DrawCache) Set(ctx context.Context, record *models.DrawRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis: marshal draw %s: %w", record.ID, err)
	}

	pipe := dc.rdb.TxPipeline()
	pipe.Set(ctx, drawKey(record.ID), data, dc.ttl)
	pipe.Set(ctx, latestKey(record.Competition), record.ID, dc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set draw %s: %w", record.ID, err)
	}
	return nil
}

// Get returns the cached draw or ErrMiss.
func (dc *DrawCache) Get(ctx context.Context, id string) (*models.DrawRecord, error) {
	data, err := dc.rdb.Get(ctx, drawKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis: get draw %s: %w", id, err)
	}

	var record models.DrawRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("redis: unmarshal draw %s: %w", id, err)
	}
	return &record, nil
}

// Latest returns the newest cached draw of competition or ErrMiss.
func (dc *DrawCache) Latest(ctx context.Context, competition string) (*models.DrawRecord, error) {
	id, err := dc.rdb.Get(ctx, latestKey(competition)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis: latest draw of %s: %w", competition, err)
	}
	return dc.Get(ctx, id)
}
