package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

func TestOutcome_Succeeded(t *testing.T) {
	outcome := domain.Succeeded(domain.Customer{ID: "c-1"}, "Customer created successfully.")

	if !outcome.Success() {
		t.Fatal("expected success")
	}
	customer, ok := outcome.Value()
	if !ok || customer.ID != "c-1" {
		t.Fatalf("unexpected value: %+v ok=%v", customer, ok)
	}
	if !outcome.Errors().Empty() {
		t.Fatalf("success must not carry errors: %v", outcome.Errors())
	}
}

func TestOutcome_Failed(t *testing.T) {
	report := domain.NewErrorReport(domain.FieldError{Field: "email", Message: "Email already exists."})
	outcome := domain.Failed[domain.Customer]("Validation failed.", report)

	if outcome.Success() {
		t.Fatal("expected failure")
	}
	if _, ok := outcome.Value(); ok {
		t.Fatal("failure must not expose a record")
	}
	if outcome.Message() != "Validation failed." {
		t.Fatalf("unexpected message: %q", outcome.Message())
	}
	if got := outcome.Errors().Fields(); len(got) != 1 || got[0] != "email" {
		t.Fatalf("unexpected fields: %v", got)
	}
}

func TestErrorReport_AddAppendString(t *testing.T) {
	var report domain.ErrorReport
	report.Add("price", "Price must be a positive number.")
	report.Append(nil)
	report.Append(&domain.FieldError{Field: "stock", Message: "Stock cannot be negative."})
	report.Add("", "No input provided.")

	if len(report) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(report))
	}
	want := "price: Price must be a positive number.; stock: Stock cannot be negative.; No input provided."
	if got := report.String(); got != want {
		t.Fatalf("unexpected report string:\n got: %s\nwant: %s", got, want)
	}
}
