package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"restoweb/backend/internal/domain"
	"restoweb/backend/internal/store"
)

func TestMarkTransactionPaidSerializesAttempts(t *testing.T) {
	databaseURL := os.Getenv("RESTOWEB_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set RESTOWEB_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	sku := fmt.Sprintf("MNU-PAY-IT-%d", stamp)

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_items (sku, name, description, image_url, category, price, available, created_at, updated_at)
		VALUES ($1, 'Nasi Goreng IT', '', '', 'main', 38000, true, now(), now())
	`, sku); err != nil {
		t.Fatalf("insert menu item: %v", err)
	}

	created, err := s.CreateTransaction(ctx, domain.Transaction{
		CustomerName: "Integration Pay",
		TableNumber:  "12",
		Subtotal:     38_000,
		TaxAmount:    4_180,
		TotalAmount:  42_180,
		Items: []domain.TransactionItem{
			{MenuSKU: sku, Name: "Nasi Goreng IT", CategoryName: "main", UnitPrice: 38_000, Qty: 1},
		},
	}, "")
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = $1`, created.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, created.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE sku = $1`, sku)
	})

	at := time.Now().UTC()
	paid, err := s.MarkTransactionPaid(ctx, created.ID, domain.PaymentMethodCash, 50_000, 7_820, "cashier", at)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment status = %s, want paid", paid.PaymentStatus)
	}
	if paid.ChangeAmount != 7_820 {
		t.Fatalf("change = %d, want 7820", paid.ChangeAmount)
	}
	if paid.PaidAt == nil {
		t.Fatal("paid_at not stamped")
	}

	// A second attempt must observe the paid row and reject.
	if _, err := s.MarkTransactionPaid(ctx, created.ID, domain.PaymentMethodCash, 50_000, 7_820, "cashier", at); !errors.Is(err, store.ErrAlreadyPaid) {
		t.Fatalf("second attempt err = %v, want ErrAlreadyPaid", err)
	}
}

func TestCreateTransactionDiscountQuota(t *testing.T) {
	databaseURL := os.Getenv("RESTOWEB_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set RESTOWEB_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	sku := fmt.Sprintf("MNU-DISC-IT-%d", stamp)
	code := fmt.Sprintf("ITQUOTA%d", stamp)

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_items (sku, name, description, image_url, category, price, available, created_at, updated_at)
		VALUES ($1, 'Ayam Bakar IT', '', '', 'main', 45000, true, now(), now())
	`, sku); err != nil {
		t.Fatalf("insert menu item: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO discounts (id, code, type, value, minimum_amount, maximum_discount,
			usage_limit, usage_count, starts_at, ends_at, active, created_at, updated_at)
		VALUES ($1, $2, 'fixed', 5000, 0, 0, 1, 0, now() - interval '1 day', now() + interval '1 day', true, now(), now())
	`, fmt.Sprintf("disc-it-%d", stamp), code); err != nil {
		t.Fatalf("insert discount: %v", err)
	}

	base := domain.Transaction{
		CustomerName:   "Quota IT",
		TableNumber:    "3",
		Subtotal:       45_000,
		TaxAmount:      4_950,
		DiscountAmount: 5_000,
		TotalAmount:    44_950,
		DiscountCode:   code,
		Items: []domain.TransactionItem{
			{MenuSKU: sku, Name: "Ayam Bakar IT", CategoryName: "main", UnitPrice: 45_000, Qty: 1},
		},
	}

	first, err := s.CreateTransaction(ctx, base, code)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = $1`, first.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, first.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM discounts WHERE code = $1`, code)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE sku = $1`, sku)
	})

	if _, err := s.CreateTransaction(ctx, base, code); !errors.Is(err, store.ErrDiscountExhausted) {
		t.Fatalf("second create err = %v, want ErrDiscountExhausted", err)
	}
}
