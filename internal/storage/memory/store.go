package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

var errTxFinished = errors.New("memory: transaction already finished")

// Store — in-memory реализация domain.Store для локальной разработки и тестов.
// Транзакции сериализуются: Do держит эксклюзивную блокировку на всё время fn,
// поэтому параллельные читатели никогда не видят незафиксированные изменения.
type Store struct {
	mu     sync.RWMutex
	data   *state
	closed bool
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Customers возвращает репозиторий клиентов в режиме autocommit.
func (s *Store) Customers() domain.CustomerRepository {
	return customerRepository{scope: scope{store: s}}
}

// Products возвращает репозиторий товаров в режиме autocommit.
func (s *Store) Products() domain.ProductRepository {
	return productRepository{scope: scope{store: s}}
}

// Orders возвращает репозиторий заказов в режиме autocommit.
func (s *Store) Orders() domain.OrderRepository {
	return orderRepository{scope: scope{store: s}}
}

// Outbox возвращает outbox-репозиторий в режиме autocommit.
func (s *Store) Outbox() domain.OutboxRepository {
	return outboxRepository{scope: scope{store: s}}
}

// Do выполняет fn в транзакции. Ошибка или паника внутри fn откатывает все изменения.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	t := &tx{store: s}
	s.data.beginJournal()
	defer func() {
		t.finished = true
		if p := recover(); p != nil {
			s.data.rollbackTo(0)
			s.data.endJournal()
			panic(p)
		}
		if err != nil {
			s.data.rollbackTo(0)
		}
		s.data.endJournal()
	}()

	return fn(ctx, t)
}

// Ping проверяет, что хранилище не закрыто.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

// Close помечает хранилище закрытым; повторный вызов безопасен.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// tx — транзакционный контекст, выданный Store.Do.
type tx struct {
	store    *Store
	finished bool
}

func (t *tx) Customers() domain.CustomerRepository {
	return customerRepository{scope: scope{store: t.store, tx: t}}
}

func (t *tx) Products() domain.ProductRepository {
	return productRepository{scope: scope{store: t.store, tx: t}}
}

func (t *tx) Orders() domain.OrderRepository {
	return orderRepository{scope: scope{store: t.store, tx: t}}
}

func (t *tx) Outbox() domain.OutboxRepository {
	return outboxRepository{scope: scope{store: t.store, tx: t}}
}

// Savepoint запоминает позицию журнала и откатывает к ней, если fn вернула ошибку.
func (t *tx) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.finished {
		return errTxFinished
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mark := t.store.data.journalMark()
	if err := fn(ctx); err != nil {
		t.store.data.rollbackTo(mark)
		return err
	}
	return nil
}

// scope определяет, как репозиторий получает доступ к данным:
// в autocommit берётся блокировка, внутри транзакции она уже удерживается Do.
type scope struct {
	store *Store
	tx    *tx
}

func (s scope) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if s.tx.finished {
			return errTxFinished
		}
		return fn(s.store.data)
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if s.store.closed {
		return domain.ErrStoreClosed
	}
	return fn(s.store.data)
}

func (s scope) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if s.tx.finished {
			return errTxFinished
		}
		return fn(s.store.data)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.closed {
		return domain.ErrStoreClosed
	}
	return fn(s.store.data)
}

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*tx)(nil)
)
