package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// AuditSink persists audit entries. Satisfied by *repository.AuditRepository.
type AuditSink interface {
	CopyAudit(ctx context.Context, entries []model.AttendanceAudit) error
	InsertAudit(ctx context.Context, e model.AttendanceAudit) error
}

// AuditWorker drains the attendance audit queue into Postgres in batches.
type AuditWorker struct {
	sink AuditSink
	rdb  *redis.Client
	log  zerolog.Logger

	requeueBackoff time.Duration
}

func NewAuditWorker(sink AuditSink, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		sink:           sink,
		rdb:            rdb,
		log:            log.With().Str("component", "audit_worker").Logger(),
		requeueBackoff: 2 * time.Second,
	}
}

// Start blocks until ctx is cancelled, then flushes what is buffered.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AuditWorker started")

	buffer := make([]service.AuditEvent, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// BLPop returns immediately when the queue has data.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistAttendanceAuditQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var ev service.AuditEvent
		if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
			// Malformed JSON cannot be retried.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed audit event")
			continue
		}
		buffer = append(buffer, ev)
	}
}

// flushSafe tries one bulk COPY, then row by row, then requeues what still failed.
func (w *AuditWorker) flushSafe(ctx context.Context, batch []service.AuditEvent) {
	entries := make([]model.AttendanceAudit, 0, len(batch))
	valid := make([]service.AuditEvent, 0, len(batch))
	for _, ev := range batch {
		e, err := toEntry(ev)
		if err != nil {
			w.log.Error().Err(err).Int("class_id", ev.ClassID).Str("date", ev.Date).Msg("Dropping audit event with invalid date")
			continue
		}
		entries = append(entries, e)
		valid = append(valid, ev)
	}
	if len(entries) == 0 {
		return
	}

	if err := w.sink.CopyAudit(ctx, entries); err != nil {
		w.log.Warn().Err(err).Int("count", len(entries)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, valid, entries)
		return
	}
	w.log.Debug().Int("count", len(entries)).Msg("Audit batch persisted")
}

func (w *AuditWorker) fallbackInsert(ctx context.Context, batch []service.AuditEvent, entries []model.AttendanceAudit) {
	var requeueList []service.AuditEvent
	for i, e := range entries {
		if err := w.sink.InsertAudit(ctx, e); err != nil {
			w.log.Error().Err(err).Int("class_id", e.ClassInstanceID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, batch[i])
		}
	}
	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *AuditWorker) requeue(ctx context.Context, items []service.AuditEvent) {
	if w.rdb == nil {
		w.log.Error().Int("count", len(items)).Msg("No queue to requeue audit events, dropping")
		return
	}
	pipe := w.rdb.Pipeline()
	for _, ev := range items {
		data, _ := json.Marshal(ev)
		pipe.RPush(ctx, config.WorkerKey.PersistAttendanceAuditQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue audit events. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed audit events")
	// Back off so a database outage does not spin the loop.
	time.Sleep(w.requeueBackoff)
}

func (w *AuditWorker) shutdown(buffer []service.AuditEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func toEntry(ev service.AuditEvent) (model.AttendanceAudit, error) {
	date, err := model.ParseDay(ev.Date)
	if err != nil {
		return model.AttendanceAudit{}, err
	}
	return model.AttendanceAudit{
		ClassInstanceID: ev.ClassID,
		Date:            date,
		OperatorID:      ev.OperatorID,
		OperatorRole:    ev.OperatorRole,
		Resubmission:    ev.Resubmission,
		Present:         ev.Present,
		Absent:          ev.Absent,
		Late:            ev.Late,
		CommittedAt:     ev.CommittedTime(),
	}, nil
}
