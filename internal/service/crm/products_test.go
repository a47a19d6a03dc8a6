package crm_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/crm/internal/service/crm"
)

func TestCreateProduct_Success(t *testing.T) {
	svc, store := newTestService(t)

	outcome, err := svc.CreateProduct(context.Background(), crm.ProductInput{
		Name:        " Laptop ",
		Description: "14 inch",
		Price:       "999.99",
		Stock:       intPtr(5),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	product, ok := outcome.Value()
	if !ok {
		t.Fatalf("expected success, got %v", outcome.Errors())
	}
	if outcome.Message() != "Product created successfully." {
		t.Fatalf("unexpected message %q", outcome.Message())
	}
	if product.Name != "Laptop" || !product.Price.Equal(decimal.RequireFromString("999.99")) || product.Stock != 5 {
		t.Fatalf("unexpected product %+v", product)
	}
	if _, err := store.Products().Get(context.Background(), product.ID); err != nil {
		t.Fatalf("product not stored: %v", err)
	}
}

func TestCreateProduct_DefaultStock(t *testing.T) {
	svc, _ := newTestService(t)

	outcome, err := svc.CreateProduct(context.Background(), crm.ProductInput{Name: "Pen", Price: "1.50"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	product, ok := outcome.Value()
	if !ok || product.Stock != 0 {
		t.Fatalf("expected stock 0, got %+v ok=%v", product, ok)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input crm.ProductInput
		want  [][2]string
	}{
		{
			name:  "unparsable price",
			input: crm.ProductInput{Name: "X", Price: "abc"},
			want:  [][2]string{{"price", "Invalid decimal format for price."}},
		},
		{
			name:  "zero price",
			input: crm.ProductInput{Name: "X", Price: "0"},
			want:  [][2]string{{"price", "Price must be a positive number."}},
		},
		{
			name:  "negative price",
			input: crm.ProductInput{Name: "X", Price: "-1.00"},
			want:  [][2]string{{"price", "Price must be a positive number."}},
		},
		{
			name:  "negative stock",
			input: crm.ProductInput{Name: "X", Price: "1", Stock: intPtr(-1)},
			want:  [][2]string{{"stock", "Stock cannot be negative."}},
		},
		{
			name:  "price and stock fire independently",
			input: crm.ProductInput{Name: "X", Price: "-5", Stock: intPtr(-3)},
			want: [][2]string{
				{"price", "Price must be a positive number."},
				{"stock", "Stock cannot be negative."},
			},
		},
		{
			name:  "missing name",
			input: crm.ProductInput{Price: "1"},
			want:  [][2]string{{"name", "Name is required."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)

			outcome, err := svc.CreateProduct(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("CreateProduct: %v", err)
			}
			if outcome.Success() || outcome.Message() != "Validation failed." {
				t.Fatalf("expected validation failure, got %q", outcome.Message())
			}
			errs := outcome.Errors()
			if len(errs) != len(tt.want) {
				t.Fatalf("unexpected errors %v", errs)
			}
			for i, w := range tt.want {
				if errs[i].Field != w[0] || errs[i].Message != w[1] {
					t.Fatalf("error %d: got %+v, want %v", i, errs[i], w)
				}
			}

			products, _ := store.Products().List(context.Background(), crmAllProducts())
			if len(products) != 0 {
				t.Fatalf("failed create must not write, got %+v", products)
			}
		})
	}
}
