package payment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SaleInfo is what the reconciler needs to know about a sale before opening
// a payment session for it.
type SaleInfo struct {
	ID            uuid.UUID
	TotalAmount   decimal.Decimal
	PaymentStatus string
}

// Repository defines data access for payments. Settlement transitions are
// conditional on the payment still being pending, which is what makes
// re-delivered notifications no-ops.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]*Payment, error)
	GetSaleInfo(ctx context.Context, saleID uuid.UUID) (*SaleInfo, error)

	// Complete transitions the payment from pending to completed and marks its
	// sale paid, in one transaction. Returns false when the payment was not
	// pending (the transition has already been applied).
	Complete(ctx context.Context, reference, gatewayRef string) (bool, error)

	// MarkFailed transitions the payment from pending to failed. The sale's
	// payment status is left untouched.
	MarkFailed(ctx context.Context, reference string) (bool, error)
}

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates the Postgres-backed payment repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Payment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (id, sale_id, reference, amount, gateway, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		p.ID, p.SaleID, p.Reference, p.Amount, p.Gateway, p.Status).Scan(&p.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("payment reference %s already exists", p.Reference)
		}
		return err
	}
	return nil
}

const paymentSelectSQL = `
	SELECT id, sale_id, reference, gateway_reference, amount, gateway, status,
	       verified_at, created_at, updated_at
	FROM payments`

func (r *postgresRepo) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	p, err := r.scan(r.db.QueryRowContext(ctx, paymentSelectSQL+` WHERE reference=$1`, reference))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		paymentSelectSQL+` WHERE sale_id=$1 ORDER BY created_at DESC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return payments, rows.Err()
}

func (r *postgresRepo) GetSaleInfo(ctx context.Context, saleID uuid.UUID) (*SaleInfo, error) {
	info := &SaleInfo{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, total_amount, payment_status FROM sales WHERE id=$1`, saleID).
		Scan(&info.ID, &info.TotalAmount, &info.PaymentStatus)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sale not found: %s", saleID)
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (r *postgresRepo) Complete(ctx context.Context, reference, gatewayRef string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var saleID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		UPDATE payments
		SET status='completed', gateway_reference=$1, verified_at=NOW(), updated_at=NOW()
		WHERE reference=$2 AND status='pending'
		RETURNING sale_id`, gatewayRef, reference).Scan(&saleID)
	if err == sql.ErrNoRows {
		// Already completed or failed: nothing to apply.
		return false, nil
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return false, fmt.Errorf("sale already has a completed payment")
		}
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sales SET payment_status='paid', updated_at=NOW() WHERE id=$1`, saleID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *postgresRepo) MarkFailed(ctx context.Context, reference string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status='failed', updated_at=NOW()
		WHERE reference=$1 AND status='pending'`, reference)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── scanner ───────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Payment, error) {
	p := &Payment{}
	var gatewayRef sql.NullString
	var verifiedAt sql.NullTime
	err := row.Scan(&p.ID, &p.SaleID, &p.Reference, &gatewayRef, &p.Amount,
		&p.Gateway, &p.Status, &verifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if gatewayRef.Valid {
		p.GatewayRef = gatewayRef.String
	}
	if verifiedAt.Valid {
		p.VerifiedAt = &verifiedAt.Time
	}
	return p, nil
}
