package crm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

// Имена операций для логов и метрик.
const (
	opCreateCustomer = "create_customer"
	opBulkCustomers  = "bulk_create_customers"
	opCreateProduct  = "create_product"
	opCreateOrder    = "create_order"
	opDeleteCustomer = "delete_customer"
	opDeleteProduct  = "delete_product"
	opDeleteOrder    = "delete_order"
	opRestock        = "update_low_stock_products"
)

// errRejected откатывает транзакцию, когда операция завершилась отказом валидации.
var errRejected = errors.New("mutation rejected")

// Service реализует операции изменения CRM поверх domain.Store.
type Service struct {
	store   domain.Store
	logger  *log.Entry
	metrics *metrics.CRMMetrics
	now     func() time.Time
	newID   func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт логгер сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics включает Prometheus-метрики операций.
func WithMetrics(m *metrics.CRMMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов записей.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService создаёт сервис. Метрики по умолчанию выключены.
func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.New().WithField("component", "crm"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// runMutation выполняет fn в транзакции. Отказ валидации откатывает транзакцию
// и возвращается как Outcome без ошибки; сбой хранилища возвращается ошибкой.
func runMutation[T any](
	ctx context.Context,
	s *Service,
	op string,
	fn func(ctx context.Context, tx domain.Tx) (domain.Outcome[T], error),
) (domain.Outcome[T], error) {
	start := time.Now()

	var outcome domain.Outcome[T]
	err := s.store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		outcome, err = fn(ctx, tx)
		if err != nil {
			return err
		}
		if !outcome.Success() {
			return errRejected
		}
		return nil
	})

	entry := s.logger.WithField("operation", op)
	switch {
	case err == nil:
		s.metrics.RecordMutation(op, metrics.ResultSuccess, time.Since(start))
		entry.Info(outcome.Message())
		return outcome, nil
	case errors.Is(err, errRejected):
		s.metrics.RecordMutation(op, metrics.ResultRejected, time.Since(start))
		entry.WithField("errors", outcome.Errors().String()).Info(outcome.Message())
		return outcome, nil
	default:
		s.metrics.RecordMutation(op, metrics.ResultError, time.Since(start))
		entry.WithError(err).Error("mutation failed")
		return domain.Outcome[T]{}, err
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}
