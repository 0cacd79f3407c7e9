package sale

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/stock"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct {
	db     *sql.DB
	ledger *stock.Ledger
}

// NewPostgresRepository creates the Postgres-backed sale repository. The
// ledger runs inside the commit transaction for stock reservations.
func NewPostgresRepository(db *sql.DB, ledger *stock.Ledger) Repository {
	return &postgresRepo{db: db, ledger: ledger}
}

func (r *postgresRepo) GetSaleProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ProductInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, p.tax_rate, p.is_active, COALESCE(i.quantity, 0)
		FROM products p
		LEFT JOIN inventory i ON i.product_id = p.id
		WHERE p.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[uuid.UUID]*ProductInfo, len(ids))
	for rows.Next() {
		p := &ProductInfo{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.TaxRate, &p.IsActive, &p.StockQuantity); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

// CreateSale commits the sale atomically: the sale row, its items, the
// conditional stock decrements, and their reservation movements either all
// become durable or the transaction rolls back whole.
func (r *postgresRepo) CreateSale(ctx context.Context, s *Sale) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale commit: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO sales
		  (id, sale_number, customer_id, cashier_id, subtotal, tax_amount,
		   discount_amount, total_amount, payment_method, payment_status,
		   fulfillment_status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at`,
		s.ID, s.SaleNumber, s.CustomerID, s.CashierID,
		s.Subtotal, s.TaxAmount, s.DiscountAmount, s.TotalAmount,
		s.PaymentMethod, s.PaymentStatus, s.FulfillmentStatus,
		nilIfEmpty(s.Notes)).Scan(&s.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("sale number %s: %w", s.SaleNumber, ErrDuplicateSaleNumber)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	for _, item := range s.Items {
		item.SaleID = s.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_items
			  (id, sale_id, product_id, quantity, unit_price, line_total, price_overridden)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, s.ID, item.ProductID, item.Quantity,
			item.UnitPrice, item.LineTotal, item.PriceOverridden)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}

		// Atomic check-and-decrement; a failure here rolls back every
		// reservation taken earlier in this commit.
		if _, err := r.ledger.Reserve(ctx, tx, item.ProductID, item.Quantity, s.ID, s.CashierID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const saleSelectSQL = `
	SELECT id, sale_number, customer_id, cashier_id, subtotal, tax_amount,
	       discount_amount, total_amount, payment_method, payment_status,
	       fulfillment_status, COALESCE(notes,''), created_at, updated_at
	FROM sales`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Sale, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	s, err := r.scan(r.db.QueryRowContext(ctx, saleSelectSQL+` WHERE id=$1`, uid))
	if err != nil {
		return nil, err
	}
	s.Items, err = r.listItems(ctx, s.ID)
	return s, err
}

func (r *postgresRepo) GetByNumber(ctx context.Context, saleNumber string) (*Sale, error) {
	s, err := r.scan(r.db.QueryRowContext(ctx, saleSelectSQL+` WHERE sale_number=$1`, saleNumber))
	if err != nil {
		return nil, err
	}
	s.Items, err = r.listItems(ctx, s.ID)
	return s, err
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Sale, error) {
	query := saleSelectSQL + ` WHERE 1=1`
	args := []interface{}{}
	if f.DateFrom != "" {
		args = append(args, f.DateFrom)
		query += fmt.Sprintf(" AND created_at::date >= $%d", len(args))
	}
	if f.DateTo != "" {
		args = append(args, f.DateTo)
		query += fmt.Sprintf(" AND created_at::date <= $%d", len(args))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*Sale
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if sales == nil {
		sales = []*Sale{}
	}
	return sales, rows.Err()
}

func (r *postgresRepo) UpdateFulfillment(ctx context.Context, id uuid.UUID, from, to FulfillmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sales SET fulfillment_status=$1, updated_at=$2 WHERE id=$3 AND fulfillment_status=$4`,
		to, time.Now(), id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return validationf("sale %s is no longer %s", id, from)
	}
	return nil
}

// Cancel flips the sale to cancelled and writes one compensating release
// movement per line, all in one transaction. The conditional UPDATE makes a
// concurrent double-cancel a no-op error rather than a double release.
func (r *postgresRepo) Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sales SET fulfillment_status='cancelled', updated_at=NOW()
		WHERE id=$1 AND fulfillment_status IN ('pending','processing')`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sale %s cannot be cancelled", id)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM sale_items WHERE sale_id=$1`, id)
	if err != nil {
		return err
	}
	type line struct {
		productID uuid.UUID
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		if _, err := r.ledger.Release(ctx, tx, l.productID, l.quantity, id, actorID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ── scanners ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Sale, error) {
	s := &Sale{}
	var customerID sql.NullString
	err := row.Scan(&s.ID, &s.SaleNumber, &customerID, &s.CashierID,
		&s.Subtotal, &s.TaxAmount, &s.DiscountAmount, &s.TotalAmount,
		&s.PaymentMethod, &s.PaymentStatus, &s.FulfillmentStatus,
		&s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		cid, _ := uuid.Parse(customerID.String)
		s.CustomerID = &cid
	}
	return s, nil
}

func (r *postgresRepo) listItems(ctx context.Context, saleID uuid.UUID) ([]*SaleItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity,
		       si.unit_price, si.line_total, si.price_overridden, si.created_at
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id=$1
		ORDER BY si.created_at ASC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SaleItem
	for rows.Next() {
		item := &SaleItem{}
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.LineTotal,
			&item.PriceOverridden, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
