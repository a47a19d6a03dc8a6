package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "customer not found",
			err:  ErrCustomerNotFound,
			want: true,
		},
		{
			name: "wrapped product not found",
			err:  fmt.Errorf("load product: %w", ErrProductNotFound),
			want: true,
		},
		{
			name: "joined order not found",
			err:  errors.Join(ErrOrderNotFound, errors.New("additional context")),
			want: true,
		},
		{
			name: "email conflict",
			err:  ErrEmailAlreadyExists,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotFound(tt.err)
			if got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
