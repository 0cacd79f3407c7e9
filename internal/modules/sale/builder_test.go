package sale

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeLookup struct {
	products map[uuid.UUID]*ProductInfo
}

func (f *fakeLookup) GetSaleProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*ProductInfo, error) {
	out := make(map[uuid.UUID]*ProductInfo)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func product(price, taxRate string, qty int) *ProductInfo {
	return &ProductInfo{
		ID:            uuid.New(),
		Name:          "test product",
		Price:         dec(price),
		TaxRate:       dec(taxRate),
		IsActive:      true,
		StockQuantity: qty,
	}
}

func newTestBuilder(products ...*ProductInfo) *Builder {
	lookup := &fakeLookup{products: map[uuid.UUID]*ProductInfo{}}
	for _, p := range products {
		lookup.products[p.ID] = p
	}
	return NewBuilder(lookup, testLogger())
}

func TestBuild_PricesAndTax(t *testing.T) {
	// Two units at 10.00 plus one at 5.00, all taxed at 7.5%:
	// subtotal 25.00, tax 1.88, total 26.88.
	a := product("10.00", "0.075", 100)
	b := product("5.00", "0.075", 100)
	builder := newTestBuilder(a, b)

	priced, err := builder.Build(context.Background(), CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: a.ID.String(), Quantity: 2},
			{ProductID: b.ID.String(), Quantity: 1},
		},
		PaymentMethod: "cash",
	}, uuid.New())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := priced.Subtotal.StringFixed(2); got != "25.00" {
		t.Errorf("subtotal = %s, want 25.00", got)
	}
	if got := priced.TaxAmount.StringFixed(2); got != "1.88" {
		t.Errorf("tax = %s, want 1.88", got)
	}
	if got := priced.TotalAmount.StringFixed(2); got != "26.88" {
		t.Errorf("total = %s, want 26.88", got)
	}
	if len(priced.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(priced.Items))
	}
	if got := priced.Items[0].LineTotal.StringFixed(2); got != "20.00" {
		t.Errorf("line total = %s, want 20.00", got)
	}
}

func TestBuild_Validation(t *testing.T) {
	p := product("10.00", "0", 5)
	inactive := product("10.00", "0", 5)
	inactive.IsActive = false
	builder := newTestBuilder(p, inactive)
	neg := dec("-1.00")

	tests := []struct {
		name string
		req  CreateSaleRequest
	}{
		{
			name: "no items",
			req:  CreateSaleRequest{PaymentMethod: "cash"},
		},
		{
			name: "zero quantity",
			req: CreateSaleRequest{
				Items:         []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 0}},
				PaymentMethod: "cash",
			},
		},
		{
			name: "bad payment method",
			req: CreateSaleRequest{
				Items:         []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
				PaymentMethod: "bitcoin",
			},
		},
		{
			name: "malformed product id",
			req: CreateSaleRequest{
				Items:         []SaleItemRequest{{ProductID: "not-a-uuid", Quantity: 1}},
				PaymentMethod: "cash",
			},
		},
		{
			name: "negative price override",
			req: CreateSaleRequest{
				Items:         []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 1, UnitPrice: &neg}},
				PaymentMethod: "cash",
			},
		},
		{
			name: "negative discount",
			req: CreateSaleRequest{
				Items:          []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
				PaymentMethod:  "cash",
				DiscountAmount: neg,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := builder.Build(context.Background(), tt.req, uuid.New())
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestBuild_UnknownAndInactiveProduct(t *testing.T) {
	inactive := product("10.00", "0", 5)
	inactive.IsActive = false
	builder := newTestBuilder(inactive)

	for _, id := range []string{uuid.New().String(), inactive.ID.String()} {
		_, err := builder.Build(context.Background(), CreateSaleRequest{
			Items:         []SaleItemRequest{{ProductID: id, Quantity: 1}},
			PaymentMethod: "cash",
		}, uuid.New())
		var nfErr *ProductNotFoundError
		if !errors.As(err, &nfErr) {
			t.Errorf("err = %v, want ProductNotFoundError", err)
		}
	}
}

func TestBuild_InsufficientStock(t *testing.T) {
	p := product("10.00", "0", 3)
	builder := newTestBuilder(p)

	_, err := builder.Build(context.Background(), CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 4}},
		PaymentMethod: "cash",
	}, uuid.New())

	var stockErr *stock.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if stockErr.Requested != 4 || stockErr.Available != 3 {
		t.Errorf("requested/available = %d/%d, want 4/3", stockErr.Requested, stockErr.Available)
	}
}

func TestBuild_TaxMismatchRejected(t *testing.T) {
	p := product("10.00", "0.075", 100)
	builder := newTestBuilder(p)

	wrongTax := dec("5.00") // computed tax is 0.75
	_, err := builder.Build(context.Background(), CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod: "card",
		TaxAmount:     &wrongTax,
	}, uuid.New())

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	// Within the tolerance it is accepted.
	closeTax := dec("0.76")
	_, err = builder.Build(context.Background(), CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod: "card",
		TaxAmount:     &closeTax,
	}, uuid.New())
	if err != nil {
		t.Errorf("tax within tolerance rejected: %v", err)
	}
}

func TestBuild_DiscountClampedToTotal(t *testing.T) {
	p := product("10.00", "0", 100)
	builder := newTestBuilder(p)

	priced, err := builder.Build(context.Background(), CreateSaleRequest{
		Items:          []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod:  "cash",
		DiscountAmount: dec("50.00"),
	}, uuid.New())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := priced.DiscountAmount.StringFixed(2); got != "10.00" {
		t.Errorf("discount = %s, want clamp to 10.00", got)
	}
	if !priced.TotalAmount.IsZero() {
		t.Errorf("total = %s, want 0", priced.TotalAmount)
	}
}

func TestBuild_SubCentOverrideSumsConsistently(t *testing.T) {
	a := product("10.00", "0", 100)
	b := product("10.00", "0", 100)
	builder := newTestBuilder(a, b)

	// Overrides are only required to be >= 0, so sub-cent precision is
	// accepted. Each line rounds to 7.51 and the totals must follow the
	// stored lines, not the raw 15.01 sum.
	override := dec("7.505")
	priced, err := builder.Build(context.Background(), CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: a.ID.String(), Quantity: 1, UnitPrice: &override},
			{ProductID: b.ID.String(), Quantity: 1, UnitPrice: &override},
		},
		PaymentMethod: "cash",
	}, uuid.New())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	lineSum := decimal.Zero
	for _, item := range priced.Items {
		lineSum = lineSum.Add(item.LineTotal)
	}
	if !lineSum.Equal(priced.Subtotal) {
		t.Errorf("sum of stored line totals %s != subtotal %s",
			lineSum.StringFixed(2), priced.Subtotal.StringFixed(2))
	}
	if got := priced.Subtotal.StringFixed(2); got != "15.02" {
		t.Errorf("subtotal = %s, want 15.02", got)
	}
	if !priced.TotalAmount.Equal(lineSum.Add(priced.TaxAmount).Sub(priced.DiscountAmount)) {
		t.Errorf("total %s != line sum + tax - discount", priced.TotalAmount.StringFixed(2))
	}
}

func TestBuild_PriceOverride(t *testing.T) {
	p := product("10.00", "0", 100)
	builder := newTestBuilder(p)

	override := dec("7.50")
	priced, err := builder.Build(context.Background(), CreateSaleRequest{
		Items:         []SaleItemRequest{{ProductID: p.ID.String(), Quantity: 2, UnitPrice: &override}},
		PaymentMethod: "cash",
	}, uuid.New())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	item := priced.Items[0]
	if !item.PriceOverridden {
		t.Error("item not flagged as overridden")
	}
	if got := item.UnitPrice.StringFixed(2); got != "7.50" {
		t.Errorf("unit price = %s, want 7.50", got)
	}
	if got := priced.TotalAmount.StringFixed(2); got != "15.00" {
		t.Errorf("total = %s, want 15.00", got)
	}
}
