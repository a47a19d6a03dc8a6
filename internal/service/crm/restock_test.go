package crm_test

import (
	"context"
	"testing"
)

func TestUpdateLowStockProducts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	low := mustCreateProduct(t, svc, "Low", "1.00", 0)
	edge := mustCreateProduct(t, svc, "Edge", "1.00", 9)
	enough := mustCreateProduct(t, svc, "Enough", "1.00", 10)

	result, err := svc.UpdateLowStockProducts(ctx)
	if err != nil {
		t.Fatalf("UpdateLowStockProducts: %v", err)
	}
	if result.Message != "2 product(s) restocked successfully." {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if len(result.Updated) != 2 || result.Updated[0].Stock != 10 || result.Updated[1].Stock != 19 {
		t.Fatalf("unexpected updated products %+v", result.Updated)
	}

	for id, want := range map[string]int{low.ID: 10, edge.ID: 19, enough.ID: 10} {
		p, err := store.Products().Get(ctx, id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		if p.Stock != want {
			t.Fatalf("product %s: expected stock %d, got %d", p.Name, want, p.Stock)
		}
	}

	result, err = svc.UpdateLowStockProducts(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if result.Message != "No products required restocking." || len(result.Updated) != 0 {
		t.Fatalf("unexpected second sweep result %+v", result)
	}
}
