package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
)

// ComplaintTypeRepository exposes the complaint type configuration table.
type ComplaintTypeRepository interface {
	ListActive(ctx context.Context) (domain.ComplaintTypeTable, error)
}

type complaintTypeRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintTypeRepository builds repository.
func NewComplaintTypeRepository(pool *pgxpool.Pool) ComplaintTypeRepository {
	return &complaintTypeRepository{pool: pool}
}

func (r *complaintTypeRepository) ListActive(ctx context.Context) (domain.ComplaintTypeTable, error) {
	const query = `
        SELECT id, name, sla_hours, active_flag
        FROM complaint_types WHERE active_flag=TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table domain.ComplaintTypeTable
	for rows.Next() {
		var cfg domain.ComplaintTypeConfig
		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.SLAHours, &cfg.Active); err != nil {
			return nil, err
		}
		table = append(table, cfg)
	}
	return table, rows.Err()
}

const complaintTypesCacheKey = "complaint_types:active"

type cachedComplaintTypeRepository struct {
	inner  ComplaintTypeRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedComplaintTypeRepository serves the type table from Redis, falling
// back to inner on a miss or when Redis is unavailable.
func NewCachedComplaintTypeRepository(inner ComplaintTypeRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) ComplaintTypeRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	return &cachedComplaintTypeRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedComplaintTypeRepository) ListActive(ctx context.Context) (domain.ComplaintTypeTable, error) {
	raw, err := r.client.Get(ctx, complaintTypesCacheKey).Bytes()
	switch {
	case err == nil:
		var table domain.ComplaintTypeTable
		if jsonErr := json.Unmarshal(raw, &table); jsonErr == nil {
			return table, nil
		}
		r.logger.Warn("discarding malformed complaint type cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("complaint type cache read failed", zap.Error(err))
	}

	table, err := r.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(table); err == nil {
		if err := r.client.Set(ctx, complaintTypesCacheKey, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("complaint type cache write failed", zap.Error(err))
		}
	}
	return table, nil
}
