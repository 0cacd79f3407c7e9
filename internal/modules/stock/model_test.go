package stock

import "testing"

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		threshold int
		want      Status
	}{
		{name: "zero is out of stock", quantity: 0, threshold: 10, want: StatusOutOfStock},
		{name: "at threshold is low", quantity: 10, threshold: 10, want: StatusLowStock},
		{name: "below threshold is low", quantity: 3, threshold: 10, want: StatusLowStock},
		{name: "above threshold is in stock", quantity: 11, threshold: 10, want: StatusInStock},
		{name: "one unit with zero threshold", quantity: 1, threshold: 0, want: StatusInStock},
		{name: "zero with zero threshold", quantity: 0, threshold: 0, want: StatusOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.quantity, tt.threshold); got != tt.want {
				t.Errorf("StatusFor(%d, %d) = %s, want %s", tt.quantity, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{Requested: 5, Available: 2}
	if err.Error() == "" {
		t.Fatal("empty error message")
	}
}
