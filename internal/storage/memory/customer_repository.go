package memory

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// customerRepository — in-memory реализация CustomerRepository.
type customerRepository struct {
	scope scope
}

// Create сохраняет клиента, проверяя уникальность email.
func (r customerRepository) Create(ctx context.Context, customer domain.Customer) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.insertCustomer(customer)
	})
}

// Get возвращает клиента или ErrCustomerNotFound.
func (r customerRepository) Get(ctx context.Context, id string) (domain.Customer, error) {
	var customer domain.Customer
	err := r.scope.read(ctx, func(st *state) error {
		row, ok := st.customers[id]
		if !ok {
			return domain.ErrCustomerNotFound
		}
		customer = row.customer
		return nil
	})
	return customer, err
}

func (r customerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.scope.read(ctx, func(st *state) error {
		_, exists = st.emails[email]
		return nil
	})
	return exists, err
}

// List возвращает клиентов в порядке создания.
func (r customerRepository) List(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	limit := domain.EffectiveLimit(filter.Limit)
	result := make([]domain.Customer, 0)

	err := r.scope.read(ctx, func(st *state) error {
		for _, row := range st.sortedCustomers() {
			if !matchCustomer(row.customer, filter) {
				continue
			}
			result = append(result, row.customer)
			if len(result) >= limit {
				break
			}
		}
		return nil
	})
	return result, err
}

func (r customerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.scope.read(ctx, func(st *state) error {
		count = len(st.customers)
		return nil
	})
	return count, err
}

// Delete удаляет клиента вместе с его заказами.
func (r customerRepository) Delete(ctx context.Context, id string) error {
	return r.scope.write(ctx, func(st *state) error {
		return st.deleteCustomer(id)
	})
}

func matchCustomer(c domain.Customer, f domain.CustomerFilter) bool {
	if f.NameContains != "" && !containsFold(c.Name, f.NameContains) {
		return false
	}
	if f.EmailContains != "" && !containsFold(c.Email, f.EmailContains) {
		return false
	}
	if f.PhonePrefix != "" && !strings.HasPrefix(c.Phone, f.PhonePrefix) {
		return false
	}
	if f.CreatedFrom != nil && c.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && c.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var _ domain.CustomerRepository = customerRepository{}
