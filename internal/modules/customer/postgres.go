package customer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const customerSelectSQL = `
	SELECT id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''),
	       COALESCE(address, ''), loyalty_points, is_active, created_at, updated_at
	FROM customers`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scan(row rowScanner) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Address, &c.LoyaltyPoints, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) Create(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO customers (id, first_name, last_name, email, phone, address, loyalty_points, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		c.ID, c.FirstName, c.LastName, nilIfEmpty(c.Email), nilIfEmpty(c.Phone),
		nilIfEmpty(c.Address), c.LoyaltyPoints, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := scan(r.db.QueryRowContext(ctx, customerSelectSQL+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer not found: %s", id)
	}
	return c, err
}

func (r *postgresRepo) List(ctx context.Context, search string) ([]*Customer, error) {
	query := customerSelectSQL + ` WHERE is_active = true`
	args := []interface{}{}
	if search != "" {
		query += ` AND (first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []*Customer{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*Customer, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.FirstName != nil {
		add("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		add("last_name", *req.LastName)
	}
	if req.Email != nil {
		add("email", nilIfEmpty(*req.Email))
	}
	if req.Phone != nil {
		add("phone", nilIfEmpty(*req.Phone))
	}
	if req.Address != nil {
		add("address", nilIfEmpty(*req.Address))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE customers SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("customer not found: %s", id)
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("customer not found: %s", id)
	}
	return nil
}

func (r *postgresRepo) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET loyalty_points = loyalty_points + $1, updated_at = NOW() WHERE id = $2`,
		points, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("customer not found: %s", id)
	}
	return nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
