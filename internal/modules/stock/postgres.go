package stock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db     *sql.DB
	ledger *Ledger
}

// NewPostgresRepository creates the Postgres-backed inventory repository.
func NewPostgresRepository(db *sql.DB, ledger *Ledger) Repository {
	return &postgresRepo{db: db, ledger: ledger}
}

const itemSelectSQL = `
	SELECT p.id, p.name, COALESCE(p.sku,''), p.price,
	       i.quantity, i.low_stock_threshold, i.last_restocked, i.updated_at
	FROM inventory i
	JOIN products p ON p.id = i.product_id
	WHERE p.is_active = true`

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Item, error) {
	query := itemSelectSQL
	args := []interface{}{}
	if f.Search != "" {
		query += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.sku ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+f.Search+"%")
	}
	switch f.Filter {
	case "low":
		query += " AND i.quantity <= i.low_stock_threshold"
	case "out":
		query += " AND i.quantity = 0"
	}
	query += ` ORDER BY
		CASE WHEN i.quantity = 0 THEN 1
		     WHEN i.quantity <= i.low_stock_threshold THEN 2
		     ELSE 3 END,
		p.name`
	return r.queryItems(ctx, query, args...)
}

func (r *postgresRepo) LowStock(ctx context.Context) ([]*Item, error) {
	return r.queryItems(ctx, itemSelectSQL+`
		AND i.quantity <= i.low_stock_threshold
		ORDER BY CASE WHEN i.quantity = 0 THEN 1 ELSE 2 END, i.quantity ASC, p.name`)
}

func (r *postgresRepo) GetRecord(ctx context.Context, productID uuid.UUID) (*Record, error) {
	rec := &Record{}
	var lastRestocked sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT product_id, quantity, low_stock_threshold, last_restocked, updated_at
		FROM inventory WHERE product_id = $1`, productID).
		Scan(&rec.ProductID, &rec.Quantity, &rec.LowStockThreshold, &lastRestocked, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &NotTrackedError{ProductID: productID}
	}
	if err != nil {
		return nil, err
	}
	if lastRestocked.Valid {
		rec.LastRestocked = &lastRestocked.Time
	}
	return rec, nil
}

func (r *postgresRepo) Movements(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*Movement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, movement_type, quantity_change, sale_id, notes, user_id, created_at
		FROM inventory_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*Movement
	for rows.Next() {
		m := &Movement{}
		var saleID, userID sql.NullString
		var notes sql.NullString
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Kind, &m.QuantityChange,
			&saleID, &notes, &userID, &m.CreatedAt); err != nil {
			return nil, err
		}
		if saleID.Valid {
			id, _ := uuid.Parse(saleID.String)
			m.SaleID = &id
		}
		if userID.Valid {
			id, _ := uuid.Parse(userID.String)
			m.UserID = &id
		}
		if notes.Valid {
			m.Notes = notes.String
		}
		movements = append(movements, m)
	}
	if movements == nil {
		movements = []*Movement{}
	}
	return movements, rows.Err()
}

func (r *postgresRepo) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int, notes string, userID uuid.UUID) (*Movement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := r.ledger.SetQuantity(ctx, tx, productID, quantity, notes, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresRepo) SetThreshold(ctx context.Context, productID uuid.UUID, threshold int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory SET low_stock_threshold = $1, updated_at = $2 WHERE product_id = $3`,
		threshold, time.Now(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotTrackedError{ProductID: productID}
	}
	return nil
}

func (r *postgresRepo) queryItems(ctx context.Context, query string, args ...interface{}) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it := &Item{}
		var lastRestocked sql.NullTime
		if err := rows.Scan(&it.ProductID, &it.Name, &it.SKU, &it.Price,
			&it.Quantity, &it.LowStockThreshold, &lastRestocked, &it.UpdatedAt); err != nil {
			return nil, err
		}
		if lastRestocked.Valid {
			it.LastRestocked = &lastRestocked.Time
		}
		it.Status = StatusFor(it.Quantity, it.LowStockThreshold)
		items = append(items, it)
	}
	if items == nil {
		items = []*Item{}
	}
	return items, rows.Err()
}
