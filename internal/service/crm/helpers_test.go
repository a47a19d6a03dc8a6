package crm_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

func newTestService(t *testing.T) (*crm.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := crm.NewService(store,
		crm.WithClock(func() time.Time { return fixedNow }),
		crm.WithIDGenerator(sequentialIDs("id")),
	)
	return svc, store
}

func mustCreateCustomer(t *testing.T, svc *crm.Service, name, email string) domain.Customer {
	t.Helper()
	outcome, err := svc.CreateCustomer(context.Background(), crm.CustomerInput{Name: name, Email: email})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	customer, ok := outcome.Value()
	if !ok {
		t.Fatalf("CreateCustomer failed: %s %v", outcome.Message(), outcome.Errors())
	}
	return customer
}

func mustCreateProduct(t *testing.T, svc *crm.Service, name, price string, stock int) domain.Product {
	t.Helper()
	outcome, err := svc.CreateProduct(context.Background(), crm.ProductInput{Name: name, Price: price, Stock: &stock})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	product, ok := outcome.Value()
	if !ok {
		t.Fatalf("CreateProduct failed: %s %v", outcome.Message(), outcome.Errors())
	}
	return product
}

func intPtr(v int) *int {
	return &v
}

func pendingEvents(t *testing.T, store domain.Store) []string {
	t.Helper()
	msgs, err := store.Outbox().PullPending(context.Background(), 1000)
	if err != nil {
		t.Fatalf("PullPending: %v", err)
	}
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.EventType)
	}
	return types
}

var errInjected = errors.New("injected store fault")

// faultyStore оборачивает memory.Store и ломает выбранные операции.
type faultyStore struct {
	*memory.Store
	failCustomerCreateFor string
	failExists            bool
	failOutbox            bool
	// staleLookup заставляет ExistsByEmail не видеть уже вставленные записи,
	// как при параллельной вставке между проверкой и записью.
	staleLookup bool
	// failCommit отклоняет транзакцию после того, как fn отработала без ошибок.
	failCommit bool
}

func (f *faultyStore) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	return f.Store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := fn(ctx, faultyTx{Tx: tx, store: f}); err != nil {
			return err
		}
		if f.failCommit {
			return errInjected
		}
		return nil
	})
}

type faultyTx struct {
	domain.Tx
	store *faultyStore
}

func (t faultyTx) Customers() domain.CustomerRepository {
	return faultyCustomers{CustomerRepository: t.Tx.Customers(), store: t.store}
}

func (t faultyTx) Outbox() domain.OutboxRepository {
	return faultyOutbox{OutboxRepository: t.Tx.Outbox(), store: t.store}
}

type faultyCustomers struct {
	domain.CustomerRepository
	store *faultyStore
}

func (c faultyCustomers) Create(ctx context.Context, customer domain.Customer) error {
	if c.store.failCustomerCreateFor != "" && customer.Email == c.store.failCustomerCreateFor {
		return errInjected
	}
	return c.CustomerRepository.Create(ctx, customer)
}

func (c faultyCustomers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if c.store.failExists {
		return false, errInjected
	}
	if c.store.staleLookup {
		return false, nil
	}
	return c.CustomerRepository.ExistsByEmail(ctx, email)
}

type faultyOutbox struct {
	domain.OutboxRepository
	store *faultyStore
}

func (o faultyOutbox) Enqueue(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if o.store.failOutbox {
		return domain.OutboxMessage{}, errInjected
	}
	return o.OutboxRepository.Enqueue(ctx, msg)
}

// seedCustomerDirect пишет клиента в хранилище в обход сервиса и outbox.
func seedCustomerDirect(t *testing.T, store domain.Store, id, email string) {
	t.Helper()
	err := store.Customers().Create(context.Background(), domain.Customer{ID: id, Name: "Existing", Email: email, CreatedAt: fixedNow})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
}
