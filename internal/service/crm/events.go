package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

type customerEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type productEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Price string `json:"price,omitempty"`
	Stock int    `json:"stock"`
}

type orderEvent struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id,omitempty"`
	ProductIDs  []string  `json:"product_ids,omitempty"`
	TotalAmount string    `json:"total_amount,omitempty"`
	OrderDate   time.Time `json:"order_date,omitempty"`
}

type deletedEvent struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// enqueueEvent пишет событие в outbox той же транзакции, что и изменение.
func (s *Service) enqueueEvent(ctx context.Context, tx domain.Tx, aggregateType, aggregateID string, eventType domain.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	if _, err := tx.Outbox().Enqueue(ctx, domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     string(eventType),
		Payload:       data,
	}); err != nil {
		return fmt.Errorf("enqueue %s event: %w", eventType, err)
	}

	s.metrics.RecordOutboxEvent(string(eventType))
	return nil
}

func newCustomerEvent(c domain.Customer) customerEvent {
	return customerEvent{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, CreatedAt: c.CreatedAt}
}

func newProductEvent(p domain.Product) productEvent {
	return productEvent{ID: p.ID, Name: p.Name, Price: p.Price.String(), Stock: p.Stock}
}

func newOrderEvent(o domain.Order) orderEvent {
	return orderEvent{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		ProductIDs:  o.ProductIDs,
		TotalAmount: o.TotalAmount.String(),
		OrderDate:   o.OrderDate,
	}
}
