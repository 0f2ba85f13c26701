// Package cache puts a Redis read-through cache in front of a RecordStore.
//
// Range results are cached per owner under a generation number. Every
// write bumps the owner's generation, so stale ranges are never read again
// and simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
)

const keyPrefix = "attendance:"

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Store is a caching attendance.RecordStore
type Store struct {
	next   attendance.RecordStore
	rdb    *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to Redis and verifies it with a ping
func New(ctx context.Context, next attendance.RecordStore, opts Options, logger *zap.Logger) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	logger.Info("Redis cache connected", zap.String("addr", opts.Addr), zap.Duration("ttl", opts.TTL))

	return &Store{next: next, rdb: rdb, ttl: opts.TTL, logger: logger}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) ListRange(ctx context.Context, ownerID string, from, to time.Time, order attendance.SortOrder) ([]attendance.Record, error) {
	gen, err := s.generation(ctx, ownerID)
	if err != nil {
		s.logger.Warn("Cache unavailable, reading through", zap.Error(err))
		return s.next.ListRange(ctx, ownerID, from, to, order)
	}

	key := rangeKey(ownerID, gen, from, to, order)
	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var records []attendance.Record
		if err := json.Unmarshal(data, &records); err == nil {
			return records, nil
		}
		s.logger.Warn("Dropping unreadable cache entry", zap.String("key", key))
	} else if !errors.Is(err, goredis.Nil) {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	records, err := s.next.ListRange(ctx, ownerID, from, to, order)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return records, nil
}

func (s *Store) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	created, err := s.next.Create(ctx, rec)
	if err != nil {
		return attendance.Record{}, err
	}
	s.invalidate(ctx, rec.OwnerID)
	return created, nil
}

func (s *Store) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	updated, err := s.next.Update(ctx, rec)
	if err != nil {
		return attendance.Record{}, err
	}
	s.invalidate(ctx, rec.OwnerID)
	return updated, nil
}

func (s *Store) generation(ctx context.Context, ownerID string) (uint64, error) {
	gen, err := s.rdb.Get(ctx, generationKey(ownerID)).Uint64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *Store) invalidate(ctx context.Context, ownerID string) {
	if err := s.rdb.Incr(ctx, generationKey(ownerID)).Err(); err != nil {
		// Entries still expire after the TTL
		s.logger.Warn("Cache invalidation failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

func generationKey(ownerID string) string {
	return keyPrefix + ownerID + ":gen"
}

func rangeKey(ownerID string, gen uint64, from, to time.Time, order attendance.SortOrder) string {
	return fmt.Sprintf("%s%s:%d:%d:%d:%d", keyPrefix, ownerID, gen, from.Unix(), to.Unix(), order)
}
