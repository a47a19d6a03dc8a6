package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// outboxRepository — in-memory хранилище для transactional outbox.
type outboxRepository struct {
	scope scope
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его идентификатор.
func (r outboxRepository) Enqueue(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Payload = append([]byte(nil), msg.Payload...)

	err := r.scope.write(ctx, func(st *state) error {
		if _, exists := st.outbox[msg.ID]; exists {
			return domain.ErrRecordConflict
		}
		now := time.Now().UTC()
		st.insertOutbox(&outboxRecord{
			msg:       msg,
			status:    outboxStatusPending,
			createdAt: now,
			updatedAt: now,
		})
		return nil
	})
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending` в порядке постановки.
func (r outboxRepository) PullPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	result := make([]domain.OutboxMessage, 0, limit)
	err := r.scope.read(ctx, func(st *state) error {
		for _, rec := range pendingRecords(st) {
			result = append(result, rec.msg)
			if len(result) >= limit {
				break
			}
		}
		return nil
	})
	return result, err
}

// Stats возвращает размер backlog и время самого старого pending-сообщения.
func (r outboxRepository) Stats(ctx context.Context) (domain.OutboxStats, error) {
	var stats domain.OutboxStats
	err := r.scope.read(ctx, func(st *state) error {
		pending := pendingRecords(st)
		stats.PendingCount = len(pending)
		if len(pending) > 0 {
			stats.OldestPendingAt = pending[0].createdAt
		}
		return nil
	})
	return stats, err
}

// MarkSent обновляет статус события после успешной публикации.
func (r outboxRepository) MarkSent(ctx context.Context, id string) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.setOutboxStatus(id, outboxStatusSent, time.Now().UTC())
	})
}

// MarkFailed фиксирует ошибку публикации.
func (r outboxRepository) MarkFailed(ctx context.Context, id string) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.setOutboxStatus(id, outboxStatusFailed, time.Now().UTC())
	})
}

func pendingRecords(st *state) []*outboxRecord {
	pending := make([]*outboxRecord, 0)
	for _, rec := range st.outbox {
		if rec.status == outboxStatusPending {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	return pending
}

var _ domain.OutboxRepository = outboxRepository{}
