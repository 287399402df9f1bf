package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
)

// AuditEvent describes one committed sheet.
type AuditEvent struct {
	ClassID      int    `json:"class_id"`
	Date         string `json:"date"`
	OperatorID   int    `json:"operator_id"`
	OperatorRole string `json:"operator_role"`
	Resubmission bool   `json:"resubmission"`
	Present      int    `json:"present"`
	Absent       int    `json:"absent"`
	Late         int    `json:"late"`
	CommittedAt  int64  `json:"committed_at"`
}

// CommittedTime returns CommittedAt as a time.
func (e AuditEvent) CommittedTime() time.Time {
	return time.Unix(e.CommittedAt, 0).UTC()
}

// AuditPublisher hands audit events to whatever persists them.
type AuditPublisher interface {
	Publish(ctx context.Context, ev AuditEvent) error
}

// RedisAuditQueue pushes audit events onto the queue drained by the audit worker.
type RedisAuditQueue struct {
	rdb *redis.Client
}

// NewRedisAuditQueue creates a new RedisAuditQueue.
func NewRedisAuditQueue(rdb *redis.Client) *RedisAuditQueue {
	return &RedisAuditQueue{rdb: rdb}
}

// Publish appends ev to the audit queue.
func (q *RedisAuditQueue) Publish(ctx context.Context, ev AuditEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistAttendanceAuditQueue, data).Err(); err != nil {
		return fmt.Errorf("push audit event: %w", err)
	}
	return nil
}

// discardAudit drops events. Used when no queue is configured.
type discardAudit struct{}

func (discardAudit) Publish(context.Context, AuditEvent) error { return nil }
