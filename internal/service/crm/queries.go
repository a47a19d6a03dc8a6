package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// Greeting — ответ Hello.
const Greeting = "Hello, CRM!"

// ReminderWindow — глубина выборки недавних заказов для напоминаний.
const ReminderWindow = 7 * 24 * time.Hour

// Hello возвращает приветствие; используется heartbeat-проверкой доступности API.
func (s *Service) Hello(context.Context) string {
	return Greeting
}

func (s *Service) ListCustomers(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	customers, err := s.store.Customers().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	products, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	orders, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Stats возвращает количество клиентов, заказов и суммарную выручку.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	customers, err := s.store.Customers().Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count customers: %w", err)
	}
	orders, err := s.store.Orders().Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count orders: %w", err)
	}
	revenue, err := s.store.Orders().TotalRevenue(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("total revenue: %w", err)
	}
	return domain.Stats{Customers: customers, Orders: orders, Revenue: revenue}, nil
}

// RecentOrderReminders возвращает все заказы за последние ReminderWindow вместе с email клиента.
// Заказы читаются страницами по batch записей, пока не придёт неполная страница.
func (s *Service) RecentOrderReminders(ctx context.Context, batch int) ([]domain.OrderReminder, error) {
	since := s.timestamp().Add(-ReminderWindow)
	filter := domain.OrderFilter{DateFrom: &since, Limit: domain.EffectiveLimit(batch)}

	var orders []domain.Order
	for {
		page, err := s.store.Orders().List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list recent orders: %w", err)
		}
		orders = append(orders, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += len(page)
	}

	emails := make(map[string]string)
	reminders := make([]domain.OrderReminder, 0, len(orders))
	for _, order := range orders {
		email, ok := emails[order.CustomerID]
		if !ok {
			customer, err := s.store.Customers().Get(ctx, order.CustomerID)
			switch {
			case err == nil:
				email = customer.Email
			case domain.IsNotFound(err):
				// Клиент удалён между выборками.
				continue
			default:
				return nil, fmt.Errorf("load customer %s: %w", order.CustomerID, err)
			}
			emails[order.CustomerID] = email
		}
		reminders = append(reminders, domain.OrderReminder{
			OrderID:       order.ID,
			CustomerEmail: email,
			OrderDate:     order.OrderDate,
		})
	}
	return reminders, nil
}
