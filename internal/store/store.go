package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restoweb/backend/internal/domain"
)

// TransactionCode formats the human-facing order code: "TR", the date as
// yymmdd, and a three digit per-day sequence starting at 001.
func TransactionCode(at time.Time, seq int) string {
	return fmt.Sprintf("TR%s%03d", at.Format("060102"), seq)
}

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrAlreadyPaid        = errors.New("transaction already paid")
	ErrDiscountExhausted  = errors.New("discount usage limit reached")
)

type Repository interface {
	ListMenu(ctx context.Context) ([]domain.MenuItem, error)
	GetMenuItemsBySKUs(ctx context.Context, skus []string) (map[string]domain.MenuItem, error)
	GetDiscountByCode(ctx context.Context, code string) (*domain.Discount, error)
	// CreateTransaction persists the aggregate and its item rows in one unit
	// of work, assigns the daily sequential code, and when discountCode is
	// non-empty performs the conditional usage increment. Returns
	// ErrDiscountExhausted when the increment loses the quota race.
	CreateTransaction(ctx context.Context, tx domain.Transaction, discountCode string) (*domain.Transaction, error)
	FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error)
	FindTransactionByCode(ctx context.Context, code string) (*domain.Transaction, error)
	FindTransactionByPaymentToken(ctx context.Context, token string) (*domain.Transaction, error)
	SetPaymentMethod(ctx context.Context, id int64, method domain.PaymentMethod, token string, url string) (*domain.Transaction, error)
	// MarkTransactionPaid serializes concurrent attempts on the same row:
	// the loser observes the paid state and gets ErrAlreadyPaid.
	MarkTransactionPaid(ctx context.Context, id int64, method domain.PaymentMethod, paidAmount int64, changeAmount int64, cashier string, at time.Time) (*domain.Transaction, error)
	CancelTransactionPayment(ctx context.Context, id int64, at time.Time) (*domain.Transaction, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, at time.Time) (*domain.Transaction, error)
	UpdateItemStatus(ctx context.Context, itemID int64, status domain.ItemStatus) (*domain.TransactionItem, error)
	ListTransactions(ctx context.Context, query domain.TransactionQuery) ([]domain.Transaction, error)
	CountTransactionsSince(ctx context.Context, since time.Time) (int, error)
	CreatePaymentAttempt(ctx context.Context, attempt domain.PaymentAttempt) error
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
