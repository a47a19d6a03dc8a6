package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

// BulkCreateCustomers создаёт клиентов пакетом с частичной фиксацией:
// каждый элемент пишется в своей точке сохранения общей транзакции, ошибочные
// элементы пропускаются и попадают в отчёт под полем customer[i].
func (s *Service) BulkCreateCustomers(ctx context.Context, inputs []CustomerInput) (domain.BulkCreateResult, error) {
	if len(inputs) == 0 {
		return domain.BulkCreateResult{
			Created: []domain.Customer{},
			Errors:  domain.NewErrorReport(domain.FieldError{Field: "", Message: msgNoInput}),
			Message: msgEmptyInput,
		}, nil
	}

	start := time.Now()
	var result domain.BulkCreateResult

	err := s.store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		result = domain.BulkCreateResult{Created: make([]domain.Customer, 0, len(inputs))}

		for i, in := range inputs {
			customer, problems, err := s.bulkItem(ctx, tx, in)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				result.Errors.Add(fmt.Sprintf("customer[%d]", i), strings.Join(problems, ", "))
				continue
			}
			result.Created = append(result.Created, customer)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordMutation(opBulkCustomers, metrics.ResultError, time.Since(start))
		s.logger.WithError(err).WithField("operation", opBulkCustomers).Error("bulk create failed")
		return domain.BulkCreateResult{}, err
	}

	// Элементы учитываются только для зафиксированного пакета.
	for range result.Created {
		s.metrics.RecordBulkItem(metrics.ResultSuccess)
	}
	for range result.Errors {
		s.metrics.RecordBulkItem(metrics.ResultRejected)
	}

	result.Message = msgBulkAllCreated
	if !result.Errors.Empty() {
		result.Message = msgBulkSomeCreated
	}

	s.metrics.RecordMutation(opBulkCustomers, metrics.ResultSuccess, time.Since(start))
	s.logger.WithFields(log.Fields{
		"operation": opBulkCustomers,
		"created":   len(result.Created),
		"failed":    len(result.Errors),
	}).Info(result.Message)

	return result, nil
}

// bulkItem проверяет и создаёт один элемент пакета. problems — сообщения отказа;
// err — только сбой, после которого продолжать пакет нельзя.
func (s *Service) bulkItem(ctx context.Context, tx domain.Tx, in CustomerInput) (domain.Customer, []string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	var problems []string
	if name == "" {
		problems = append(problems, msgNameRequired)
	}
	if email == "" {
		problems = append(problems, msgEmailRequired)
	} else {
		exists, err := tx.Customers().ExistsByEmail(ctx, email)
		if err != nil {
			return domain.Customer{}, nil, fmt.Errorf("check email uniqueness: %w", err)
		}
		if exists {
			problems = append(problems, "Duplicate email: "+email)
		}
	}
	if !validPhone(phone) {
		problems = append(problems, "Invalid phone format for "+email)
	}
	if len(problems) > 0 {
		return domain.Customer{}, problems, nil
	}

	customer := domain.Customer{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: s.timestamp(),
	}

	err := tx.Savepoint(ctx, func(ctx context.Context) error {
		if err := tx.Customers().Create(ctx, customer); err != nil {
			return err
		}
		return s.enqueueEvent(ctx, tx, domain.AggregateCustomer, customer.ID, domain.EventCustomerCreated, newCustomerEvent(customer))
	})
	switch {
	case err == nil:
		return customer, nil, nil
	case ctx.Err() != nil:
		return domain.Customer{}, nil, ctx.Err()
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return domain.Customer{}, []string{"Duplicate email: " + email}, nil
	default:
		s.logger.WithError(err).WithField("email", email).Warn("bulk item create failed")
		return domain.Customer{}, []string{err.Error()}, nil
	}
}
