package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid", Invalid("Name and price are required"), KindInvalid},
		{"not found", NotFound("Product not found"), KindNotFound},
		{"wrapped domain error", fmt.Errorf("handler: %w", NotFound("x")), KindNotFound},
		{"bare unavailable", fmt.Errorf("list: %w", ErrUnavailable), KindUnavailable},
		{"foreign", errors.New("boom"), KindInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStoreFailure(t *testing.T) {
	down := StoreFailure("Failed to fetch products", fmt.Errorf("list products: %w", ErrUnavailable))
	if down.Kind != KindUnavailable || down.Message != "Database connection failed" {
		t.Fatalf("unexpected outage mapping: %+v", down)
	}
	if !errors.Is(down, ErrUnavailable) {
		t.Fatalf("expected cause to stay in chain")
	}

	broken := StoreFailure("Failed to fetch products", errors.New("syntax error"))
	if broken.Kind != KindInternal || broken.Message != "Failed to fetch products" {
		t.Fatalf("unexpected internal mapping: %+v", broken)
	}
	if broken.Error() != "Failed to fetch products: syntax error" {
		t.Fatalf("unexpected error text: %q", broken.Error())
	}
}
