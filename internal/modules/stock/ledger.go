package stock

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DBTX is the subset of database/sql satisfied by both *sql.DB and *sql.Tx.
// Ledger operations take a DBTX so the sale coordinator can run them inside
// its own transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Ledger is the single mutation path for quantity-on-hand. Every successful
// operation decrements or increments the stock row atomically and writes
// exactly one movement in the same transaction scope.
type Ledger struct{}

// NewLedger creates a stock ledger.
func NewLedger() *Ledger { return &Ledger{} }

// Reserve atomically decrements quantity-on-hand for a committed sale line.
// The check-and-decrement is a single conditional UPDATE, so concurrent sales
// for the same product cannot both take the last unit.
func (l *Ledger) Reserve(ctx context.Context, db DBTX, productID uuid.UUID, quantity int, saleID uuid.UUID, userID uuid.UUID) (*Movement, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("reserve quantity must be > 0, got %d", quantity)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE product_id = $2 AND quantity >= $1`,
		quantity, productID)
	if err != nil {
		return nil, fmt.Errorf("reserve stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var available int
		err := db.QueryRowContext(ctx,
			`SELECT quantity FROM inventory WHERE product_id = $1`, productID).Scan(&available)
		if err == sql.ErrNoRows {
			return nil, &NotTrackedError{ProductID: productID}
		}
		if err != nil {
			return nil, fmt.Errorf("read stock: %w", err)
		}
		return nil, &InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
	}

	return l.record(ctx, db, &Movement{
		ProductID:      productID,
		Kind:           MovementReservation,
		QuantityChange: -quantity,
		SaleID:         &saleID,
		UserID:         &userID,
	})
}

// Release returns a previously reserved quantity to stock, e.g. for a
// cancelled sale's compensating movement.
func (l *Ledger) Release(ctx context.Context, db DBTX, productID uuid.UUID, quantity int, saleID uuid.UUID, userID uuid.UUID) (*Movement, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("release quantity must be > 0, got %d", quantity)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE product_id = $2`,
		quantity, productID)
	if err != nil {
		return nil, fmt.Errorf("release stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &NotTrackedError{ProductID: productID}
	}

	return l.record(ctx, db, &Movement{
		ProductID:      productID,
		Kind:           MovementRelease,
		QuantityChange: quantity,
		SaleID:         &saleID,
		UserID:         &userID,
	})
}

// Adjust applies a signed manual delta. Positive deltas are restocks and
// also bump last_restocked; negative deltas are adjustments and may not take
// the quantity below zero.
func (l *Ledger) Adjust(ctx context.Context, db DBTX, productID uuid.UUID, delta int, notes string, userID uuid.UUID) (*Movement, error) {
	if delta == 0 {
		return nil, fmt.Errorf("adjustment delta must be non-zero")
	}

	var res sql.Result
	var err error
	if delta > 0 {
		res, err = db.ExecContext(ctx, `
			UPDATE inventory
			SET quantity = quantity + $1, last_restocked = NOW(), updated_at = NOW()
			WHERE product_id = $2`,
			delta, productID)
	} else {
		res, err = db.ExecContext(ctx, `
			UPDATE inventory
			SET quantity = quantity + $1, updated_at = NOW()
			WHERE product_id = $2 AND quantity + $1 >= 0`,
			delta, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var available int
		err := db.QueryRowContext(ctx,
			`SELECT quantity FROM inventory WHERE product_id = $1`, productID).Scan(&available)
		if err == sql.ErrNoRows {
			return nil, &NotTrackedError{ProductID: productID}
		}
		if err != nil {
			return nil, fmt.Errorf("read stock: %w", err)
		}
		return nil, &InsufficientStockError{ProductID: productID, Requested: -delta, Available: available}
	}

	kind := MovementAdjustment
	if delta > 0 {
		kind = MovementRestock
	}
	return l.record(ctx, db, &Movement{
		ProductID:      productID,
		Kind:           kind,
		QuantityChange: delta,
		Notes:          notes,
		UserID:         &userID,
	})
}

// SetQuantity moves a product to an absolute quantity. The current quantity
// is read under a row lock in the caller's transaction, so the delta cannot
// be computed against a stale value while sales commit concurrently. Returns
// a nil movement when the quantity is already at the target.
func (l *Ledger) SetQuantity(ctx context.Context, db DBTX, productID uuid.UUID, quantity int, notes string, userID uuid.UUID) (*Movement, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}

	var current int
	err := db.QueryRowContext(ctx,
		`SELECT quantity FROM inventory WHERE product_id = $1 FOR UPDATE`, productID).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, &NotTrackedError{ProductID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("read stock: %w", err)
	}

	delta := quantity - current
	if delta == 0 {
		return nil, nil
	}
	if notes == "" {
		if delta > 0 {
			notes = "Stock replenishment"
		} else {
			notes = "Stock adjustment"
		}
	}
	return l.Adjust(ctx, db, productID, delta, notes, userID)
}

func (l *Ledger) record(ctx context.Context, db DBTX, m *Movement) (*Movement, error) {
	m.ID = uuid.New()
	err := db.QueryRowContext(ctx, `
		INSERT INTO inventory_movements
		  (id, product_id, movement_type, quantity_change, sale_id, notes, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		m.ID, m.ProductID, m.Kind, m.QuantityChange, m.SaleID, nilIfEmpty(m.Notes), m.UserID).
		Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}
	return m, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
