package domain

import (
	"context"
	"time"
)

// EventType — тип доменного события CRM.
type EventType string

const (
	EventCustomerCreated  EventType = "customer.created"
	EventCustomerDeleted  EventType = "customer.deleted"
	EventProductCreated   EventType = "product.created"
	EventProductDeleted   EventType = "product.deleted"
	EventProductRestocked EventType = "product.restocked"
	EventOrderCreated     EventType = "order.created"
	EventOrderDeleted     EventType = "order.deleted"
)

// Типы агрегатов для outbox.
const (
	AggregateCustomer = "customer"
	AggregateProduct  = "product"
	AggregateOrder    = "order"
)

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
