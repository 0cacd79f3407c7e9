package sale

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInfo is what the builder needs to price one line: the authoritative
// catalog price, the product's tax rate, and a stock snapshot for the
// fail-fast pre-check.
type ProductInfo struct {
	ID            uuid.UUID
	Name          string
	Price         decimal.Decimal
	TaxRate       decimal.Decimal
	IsActive      bool
	StockQuantity int
}

// ProductLookup resolves the products referenced by a sale request.
type ProductLookup interface {
	GetSaleProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ProductInfo, error)
}

// taxTolerance is how far a client-supplied tax amount may drift from the
// recomputed one before the request is rejected.
var taxTolerance = decimal.New(1, -2) // 0.01

// Builder validates a sale request and prices it server-side. Client-supplied
// amounts are advisory: totals are always recomputed from the catalog.
type Builder struct {
	products ProductLookup
	logger   *slog.Logger
}

// NewBuilder creates a sale builder.
func NewBuilder(products ProductLookup, logger *slog.Logger) *Builder {
	return &Builder{products: products, logger: logger}
}

// Build validates and prices the requested sale. The stock check here is a
// read-only fast fail; the coordinator re-checks atomically at commit.
func (b *Builder) Build(ctx context.Context, req CreateSaleRequest, cashierID uuid.UUID) (*PricedSale, error) {
	if len(req.Items) == 0 {
		return nil, validationf("sale must have at least one item")
	}

	method := PaymentMethod(strings.ToLower(req.PaymentMethod))
	switch method {
	case MethodCash, MethodCard, MethodMobileMoney:
	default:
		return nil, validationf("invalid payment_method: %s (allowed: cash, card, mobile_money)", req.PaymentMethod)
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, validationf("quantity must be > 0 for product %s", it.ProductID)
		}
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, validationf("invalid product_id: %s", it.ProductID)
		}
		ids = append(ids, pid)
	}

	products, err := b.products.GetSaleProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	var items []*SaleItem
	subtotal := decimal.Zero
	tax := decimal.Zero

	for i, it := range req.Items {
		pid := ids[i]
		p, ok := products[pid]
		if !ok || !p.IsActive {
			return nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if p.StockQuantity < it.Quantity {
			return nil, &stock.InsufficientStockError{
				ProductID: pid,
				Requested: it.Quantity,
				Available: p.StockQuantity,
			}
		}

		unitPrice := p.Price
		overridden := false
		if it.UnitPrice != nil {
			if it.UnitPrice.IsNegative() {
				return nil, validationf("unit price override must be >= 0 for product %s", it.ProductID)
			}
			unitPrice = *it.UnitPrice
			overridden = true
			b.logger.Info("unit price overridden",
				"product_id", pid.String(),
				"catalog_price", p.Price.String(),
				"override_price", unitPrice.String(),
				"cashier_id", cashierID.String())
		}

		// Line totals are rounded before accumulation so the stored lines
		// always sum exactly to the subtotal.
		qty := decimal.NewFromInt(int64(it.Quantity))
		lineTotal := unitPrice.Mul(qty).Round(2)
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(lineTotal.Mul(p.TaxRate))

		items = append(items, &SaleItem{
			ID:              uuid.New(),
			ProductID:       pid,
			ProductName:     p.Name,
			Quantity:        it.Quantity,
			UnitPrice:       unitPrice,
			LineTotal:       lineTotal,
			PriceOverridden: overridden,
		})
	}

	tax = tax.Round(2)

	// A client-supplied tax amount is checked against the recomputed one,
	// not trusted.
	if req.TaxAmount != nil && req.TaxAmount.Sub(tax).Abs().GreaterThan(taxTolerance) {
		return nil, validationf("tax_amount %s does not match computed tax %s",
			req.TaxAmount.StringFixed(2), tax.StringFixed(2))
	}

	discount := req.DiscountAmount
	if discount.IsNegative() {
		return nil, validationf("discount_amount cannot be negative")
	}
	if discount.GreaterThan(subtotal.Add(tax)) {
		discount = subtotal.Add(tax)
	}
	discount = discount.Round(2)

	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	priced := &PricedSale{
		CashierID:      cashierID,
		Items:          items,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    total.Round(2),
		PaymentMethod:  method,
		Notes:          req.Notes,
	}

	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, validationf("invalid customer_id: %s", req.CustomerID)
		}
		priced.CustomerID = &cid
	}

	return priced, nil
}
