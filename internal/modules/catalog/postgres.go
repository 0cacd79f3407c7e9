package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates the Postgres-backed catalog repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product, initialStock, lowStockThreshold int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products
		  (id, name, description, sku, barcode, category_id, price, cost_price, tax_rate, image_url, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.Name, nilIfEmpty(p.Description), nilIfEmpty(p.SKU), nilIfEmpty(p.Barcode),
		p.CategoryID, p.Price, p.CostPrice, p.TaxRate, nilIfEmpty(p.ImageURL), p.IsActive)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (product_id, quantity, low_stock_threshold)
		VALUES ($1, $2, $3)`,
		p.ID, initialStock, lowStockThreshold)
	if err != nil {
		return fmt.Errorf("seed inventory: %w", err)
	}

	return tx.Commit()
}

const productSelectSQL = `
	SELECT id, name, COALESCE(description,''), COALESCE(sku,''), COALESCE(barcode,''),
	       category_id, price, cost_price, tax_rate, COALESCE(image_url,''),
	       is_active, created_at, updated_at
	FROM products`

func (r *postgresRepo) GetProductByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return r.scan(r.db.QueryRowContext(ctx, productSelectSQL+` WHERE id=$1`, uid))
}

func (r *postgresRepo) ListProducts(ctx context.Context, search, categoryID string, limit, offset int) ([]*Product, error) {
	query := productSelectSQL + ` WHERE is_active = true`
	args := []interface{}{}
	if search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d OR barcode ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	if categoryID != "" {
		query += fmt.Sprintf(" AND category_id = $%d", len(args)+1)
		args = append(args, categoryID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if products == nil {
		products = []*Product{}
	}
	return products, rows.Err()
}

func (r *postgresRepo) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) error {
	set := ""
	args := []interface{}{}
	add := func(col string, v interface{}) {
		if set != "" {
			set += ", "
		}
		args = append(args, v)
		set += fmt.Sprintf("%s = $%d", col, len(args))
	}
	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.CostPrice != nil {
		add("cost_price", *req.CostPrice)
	}
	if req.TaxRate != nil {
		add("tax_rate", *req.TaxRate)
	}
	if req.ImageURL != nil {
		add("image_url", *req.ImageURL)
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}
	if set == "" {
		return fmt.Errorf("no fields to update")
	}
	add("updated_at", time.Now())
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, set, len(args)), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresRepo) DeactivateProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_active = false, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description) VALUES ($1,$2,$3)`,
		c.ID, c.Name, nilIfEmpty(c.Description))
	return err
}

func (r *postgresRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description,''), created_at, updated_at
		FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if categories == nil {
		categories = []*Category{}
	}
	return categories, rows.Err()
}

// ── scanner ───────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Product, error) {
	p := &Product{}
	var categoryID sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.Barcode,
		&categoryID, &p.Price, &p.CostPrice, &p.TaxRate, &p.ImageURL,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id, _ := uuid.Parse(categoryID.String)
		p.CategoryID = &id
	}
	return p, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
