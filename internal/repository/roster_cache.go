package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// RosterSource is anything that can list the students of a class.
type RosterSource interface {
	ListStudents(ctx context.Context, classID int) ([]model.Student, error)
}

// CachedRoster keeps class rosters in Redis for ttl in front of a slower source.
// Cache failures are logged and fall through to the source.
type CachedRoster struct {
	next RosterSource
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewCachedRoster creates a new CachedRoster.
func NewCachedRoster(next RosterSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedRoster {
	return &CachedRoster{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "roster_cache").Logger(),
	}
}

// ListStudents returns the cached roster, filling the cache on a miss.
func (c *CachedRoster) ListStudents(ctx context.Context, classID int) ([]model.Student, error) {
	key := config.CacheKey.ClassRosterKey(classID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var students []model.Student
		if jsonErr := json.Unmarshal(data, &students); jsonErr == nil {
			return students, nil
		}
		c.log.Warn().Int("class_id", classID).Msg("Discarding malformed cached roster")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Int("class_id", classID).Msg("Roster cache read failed")
	}

	students, err := c.next.ListStudents(ctx, classID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(students); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Int("class_id", classID).Msg("Roster cache write failed")
		}
	}
	return students, nil
}
