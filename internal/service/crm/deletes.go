package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// deleteSpec описывает удаление записи одного типа.
type deleteSpec struct {
	op        string
	entity    string
	aggregate string
	event     domain.EventType
	remove    func(ctx context.Context, tx domain.Tx, id string) error
}

var (
	customerDelete = deleteSpec{
		op:        opDeleteCustomer,
		entity:    "Customer",
		aggregate: domain.AggregateCustomer,
		event:     domain.EventCustomerDeleted,
		remove: func(ctx context.Context, tx domain.Tx, id string) error {
			return tx.Customers().Delete(ctx, id)
		},
	}
	productDelete = deleteSpec{
		op:        opDeleteProduct,
		entity:    "Product",
		aggregate: domain.AggregateProduct,
		event:     domain.EventProductDeleted,
		remove: func(ctx context.Context, tx domain.Tx, id string) error {
			return tx.Products().Delete(ctx, id)
		},
	}
	orderDelete = deleteSpec{
		op:        opDeleteOrder,
		entity:    "Order",
		aggregate: domain.AggregateOrder,
		event:     domain.EventOrderDeleted,
		remove: func(ctx context.Context, tx domain.Tx, id string) error {
			return tx.Orders().Delete(ctx, id)
		},
	}
)

// DeleteCustomer удаляет клиента вместе с его заказами.
func (s *Service) DeleteCustomer(ctx context.Context, id string) (domain.Outcome[string], error) {
	return s.deleteRecord(ctx, customerDelete, id)
}

// DeleteProduct удаляет товар; суммы существующих заказов не пересчитываются.
func (s *Service) DeleteProduct(ctx context.Context, id string) (domain.Outcome[string], error) {
	return s.deleteRecord(ctx, productDelete, id)
}

// DeleteOrder удаляет заказ.
func (s *Service) DeleteOrder(ctx context.Context, id string) (domain.Outcome[string], error) {
	return s.deleteRecord(ctx, orderDelete, id)
}

func (s *Service) deleteRecord(ctx context.Context, spec deleteSpec, id string) (domain.Outcome[string], error) {
	id = strings.TrimSpace(id)

	return runMutation(ctx, s, spec.op, func(ctx context.Context, tx domain.Tx) (domain.Outcome[string], error) {
		notFound := domain.Failed[string](spec.entity+" not found.", domain.NewErrorReport(domain.FieldError{
			Field:   fieldID,
			Message: "Invalid " + strings.ToLower(spec.entity) + " ID.",
		}))
		if id == "" {
			return notFound, nil
		}

		if err := spec.remove(ctx, tx, id); err != nil {
			if domain.IsNotFound(err) {
				return notFound, nil
			}
			return domain.Outcome[string]{}, fmt.Errorf("delete %s: %w", strings.ToLower(spec.entity), err)
		}

		if err := s.enqueueEvent(ctx, tx, spec.aggregate, id, spec.event, deletedEvent{ID: id, DeletedAt: s.timestamp()}); err != nil {
			return domain.Outcome[string]{}, err
		}

		return domain.Succeeded(id, spec.entity+" deleted successfully."), nil
	})
}
