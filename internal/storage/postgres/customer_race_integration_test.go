package postgres

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
)

// lateInsertStore прячет существующие email от проверки уникальности,
// чтобы запись упиралась в уникальный индекс внутри транзакции.
type lateInsertStore struct {
	*Store
}

func (s lateInsertStore) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	return s.Store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		return fn(ctx, lateInsertTx{Tx: tx})
	})
}

type lateInsertTx struct {
	domain.Tx
}

func (t lateInsertTx) Customers() domain.CustomerRepository {
	return blindEmailLookup{CustomerRepository: t.Tx.Customers()}
}

type blindEmailLookup struct {
	domain.CustomerRepository
}

func (blindEmailLookup) ExistsByEmail(context.Context, string) (bool, error) {
	return false, nil
}

func TestCRMService_PostgresUniqueIndexRace(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	svc := crm.NewService(lateInsertStore{Store: store})

	if _, err := svc.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	outcome, err := svc.CreateCustomer(ctx, crm.CustomerInput{Name: "Alice 2", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("unique violation must not abort the transaction: %v", err)
	}
	errs := outcome.Errors()
	if outcome.Success() || len(errs) != 1 || errs[0].Field != "email" || errs[0].Message != "Email already exists." {
		t.Fatalf("unexpected outcome %q %v", outcome.Message(), errs)
	}

	result, err := svc.BulkCreateCustomers(ctx, []crm.CustomerInput{
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Alice 3", Email: "alice@example.com"},
	})
	if err != nil {
		t.Fatalf("BulkCreateCustomers: %v", err)
	}
	if len(result.Created) != 1 || len(result.Errors) != 1 || result.Errors[0].Message != "Duplicate email: alice@example.com" {
		t.Fatalf("unexpected bulk result %+v", result)
	}

	count, err := store.Customers().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected alice and bob only, got %d", count)
	}
	stats, err := store.Outbox().Stats(ctx)
	if err != nil {
		t.Fatalf("outbox stats: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected events for alice and bob only, got %d", stats.PendingCount)
	}
}
