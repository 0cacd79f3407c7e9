package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockDB(t *testing.T) (DBTX, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectMovementInsert(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("INSERT INTO inventory_movements").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
}

func TestLedgerReserve_WritesOneReservationMovement(t *testing.T) {
	db, mock := newMockDB(t)
	productID, saleID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE inventory").
		WithArgs(3, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectMovementInsert(mock)

	m, err := NewLedger().Reserve(context.Background(), db, productID, 3, saleID, userID)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if m.Kind != MovementReservation {
		t.Errorf("kind = %s, want reservation", m.Kind)
	}
	if m.QuantityChange != -3 {
		t.Errorf("delta = %d, want -3", m.QuantityChange)
	}
	if m.SaleID == nil || *m.SaleID != saleID {
		t.Error("movement not linked to the sale")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statement flow: %v", err)
	}
}

func TestLedgerReserve_InsufficientWritesNoMovement(t *testing.T) {
	db, mock := newMockDB(t)
	productID := uuid.New()

	mock.ExpectExec("UPDATE inventory").
		WithArgs(5, productID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT quantity FROM inventory").
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(2))

	_, err := NewLedger().Reserve(context.Background(), db, productID, 5, uuid.New(), uuid.New())
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if stockErr.Available != 2 {
		t.Errorf("available = %d, want 2", stockErr.Available)
	}
	// ExpectationsWereMet proves no movement insert was attempted.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statement flow: %v", err)
	}
}

func TestLedgerReserve_UntrackedProduct(t *testing.T) {
	db, mock := newMockDB(t)
	productID := uuid.New()

	mock.ExpectExec("UPDATE inventory").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT quantity FROM inventory").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	_, err := NewLedger().Reserve(context.Background(), db, productID, 1, uuid.New(), uuid.New())
	var ntErr *NotTrackedError
	if !errors.As(err, &ntErr) {
		t.Fatalf("err = %v, want NotTrackedError", err)
	}
}

func TestLedgerRelease_WritesOneReleaseMovement(t *testing.T) {
	db, mock := newMockDB(t)
	productID, saleID := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE inventory").
		WithArgs(3, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectMovementInsert(mock)

	m, err := NewLedger().Release(context.Background(), db, productID, 3, saleID, uuid.New())
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if m.Kind != MovementRelease {
		t.Errorf("kind = %s, want release", m.Kind)
	}
	if m.QuantityChange != 3 {
		t.Errorf("delta = %d, want +3", m.QuantityChange)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statement flow: %v", err)
	}
}

func TestLedgerAdjust(t *testing.T) {
	t.Run("positive delta is a restock", func(t *testing.T) {
		db, mock := newMockDB(t)
		productID := uuid.New()

		mock.ExpectExec("UPDATE inventory").
			WithArgs(10, productID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectMovementInsert(mock)

		m, err := NewLedger().Adjust(context.Background(), db, productID, 10, "restock", uuid.New())
		if err != nil {
			t.Fatalf("Adjust: %v", err)
		}
		if m.Kind != MovementRestock || m.QuantityChange != 10 {
			t.Errorf("movement = %s/%d, want restock/+10", m.Kind, m.QuantityChange)
		}
	})

	t.Run("negative delta below zero is rejected without a movement", func(t *testing.T) {
		db, mock := newMockDB(t)
		productID := uuid.New()

		mock.ExpectExec("UPDATE inventory").
			WithArgs(-8, productID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT quantity FROM inventory").
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(5))

		_, err := NewLedger().Adjust(context.Background(), db, productID, -8, "", uuid.New())
		var stockErr *InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("err = %v, want InsufficientStockError", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected statement flow: %v", err)
		}
	})

	t.Run("zero delta is rejected", func(t *testing.T) {
		db, _ := newMockDB(t)
		if _, err := NewLedger().Adjust(context.Background(), db, uuid.New(), 0, "", uuid.New()); err == nil {
			t.Error("zero delta accepted")
		}
	})
}

func TestLedgerSetQuantity(t *testing.T) {
	t.Run("delta computed under the row lock", func(t *testing.T) {
		db, mock := newMockDB(t)
		productID := uuid.New()

		mock.ExpectQuery("SELECT quantity FROM inventory").
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(4))
		mock.ExpectExec("UPDATE inventory").
			WithArgs(6, productID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectMovementInsert(mock)

		m, err := NewLedger().SetQuantity(context.Background(), db, productID, 10, "", uuid.New())
		if err != nil {
			t.Fatalf("SetQuantity: %v", err)
		}
		if m.Kind != MovementRestock || m.QuantityChange != 6 {
			t.Errorf("movement = %s/%d, want restock/+6", m.Kind, m.QuantityChange)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected statement flow: %v", err)
		}
	})

	t.Run("already at target is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		productID := uuid.New()

		mock.ExpectQuery("SELECT quantity FROM inventory").
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(7))

		m, err := NewLedger().SetQuantity(context.Background(), db, productID, 7, "", uuid.New())
		if err != nil {
			t.Fatalf("SetQuantity: %v", err)
		}
		if m != nil {
			t.Errorf("movement written for a no-op: %+v", m)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected statement flow: %v", err)
		}
	})
}

// Every successful mutation writes exactly one movement whose delta equals
// the quantity change, so the deltas must sum to the net change of the run.
func TestLedgerMovementDeltasSumToNetChange(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewLedger()
	productID, saleID, userID := uuid.New(), uuid.New(), uuid.New()

	type op func() (*Movement, error)
	steps := []struct {
		run     op
		applied int64 // rows affected by the quantity UPDATE
	}{
		{applied: 1, run: func() (*Movement, error) {
			return ledger.Adjust(context.Background(), db, productID, 10, "initial stock", userID)
		}},
		{applied: 1, run: func() (*Movement, error) {
			return ledger.Reserve(context.Background(), db, productID, 4, saleID, userID)
		}},
		{applied: 1, run: func() (*Movement, error) {
			return ledger.Release(context.Background(), db, productID, 4, saleID, userID)
		}},
		{applied: 1, run: func() (*Movement, error) {
			return ledger.Adjust(context.Background(), db, productID, -2, "damaged", userID)
		}},
	}

	deltaSum := 0
	for _, step := range steps {
		mock.ExpectExec("UPDATE inventory").
			WillReturnResult(sqlmock.NewResult(0, step.applied))
		expectMovementInsert(mock)

		m, err := step.run()
		if err != nil {
			t.Fatalf("ledger op: %v", err)
		}
		deltaSum += m.QuantityChange
	}

	// Net change of the run: +10 -4 +4 -2.
	if deltaSum != 8 {
		t.Errorf("movement deltas sum to %d, want 8", deltaSum)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("movement count does not match mutation count: %v", err)
	}
}
