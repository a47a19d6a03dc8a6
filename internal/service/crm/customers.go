package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// CreateCustomer проверяет и сохраняет одного клиента.
// Отказ валидации возвращается в Outcome, сбой хранилища — ошибкой.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (domain.Outcome[domain.Customer], error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	return runMutation(ctx, s, opCreateCustomer, func(ctx context.Context, tx domain.Tx) (domain.Outcome[domain.Customer], error) {
		var report domain.ErrorReport
		report.Append(validateRequired(fieldName, name, msgNameRequired))

		if email == "" {
			report.Add(fieldEmail, msgEmailRequired)
		} else {
			fe, err := validateEmailUnique(ctx, tx.Customers(), email)
			if err != nil {
				return domain.Outcome[domain.Customer]{}, err
			}
			report.Append(fe)
		}
		report.Append(validatePhone(phone))

		if !report.Empty() {
			return domain.Failed[domain.Customer](msgValidationFailed, report), nil
		}

		customer := domain.Customer{
			ID:        s.newID(),
			Name:      name,
			Email:     email,
			Phone:     phone,
			CreatedAt: s.timestamp(),
		}
		// После нарушения уникальности PostgreSQL прерывает транзакцию; откат к точке сохранения её восстанавливает.
		var raced bool
		err := tx.Savepoint(ctx, func(ctx context.Context) error {
			if err := tx.Customers().Create(ctx, customer); err != nil {
				// Гонка с параллельной вставкой: уникальный индекс сработал уже после проверки.
				if errors.Is(err, domain.ErrEmailAlreadyExists) {
					raced = true
					return err
				}
				return fmt.Errorf("create customer: %w", err)
			}
			return s.enqueueEvent(ctx, tx, domain.AggregateCustomer, customer.ID, domain.EventCustomerCreated, newCustomerEvent(customer))
		})
		if raced {
			return domain.Failed[domain.Customer](msgValidationFailed, domain.NewErrorReport(
				domain.FieldError{Field: fieldEmail, Message: msgEmailExists},
			)), nil
		}
		if err != nil {
			return domain.Outcome[domain.Customer]{}, err
		}

		return domain.Succeeded(customer, msgCustomerCreated), nil
	})
}
