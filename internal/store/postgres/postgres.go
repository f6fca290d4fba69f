package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"restoweb/backend/internal/domain"
	"restoweb/backend/internal/store"
	"restoweb/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, description, image_url, category, price, available
		FROM menu_items
		WHERE available = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0, 64)
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.SKU, &m.Name, &m.Description, &m.ImageURL, &m.Category, &m.Price, &m.Available); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Store) GetMenuItemsBySKUs(ctx context.Context, skus []string) (map[string]domain.MenuItem, error) {
	result := make(map[string]domain.MenuItem, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, description, image_url, category, price, available
		FROM menu_items
		WHERE available = true AND sku = ANY($1)
	`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.SKU, &m.Name, &m.Description, &m.ImageURL, &m.Category, &m.Price, &m.Available); err != nil {
			return nil, err
		}
		result[m.SKU] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) GetDiscountByCode(ctx context.Context, code string) (*domain.Discount, error) {
	var d domain.Discount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, type, value, minimum_amount, maximum_discount,
		       usage_limit, usage_count, starts_at, ends_at, active
		FROM discounts
		WHERE upper(code) = upper($1)
	`, code).Scan(&d.ID, &d.Code, &d.Type, &d.Value, &d.MinimumAmount, &d.MaximumDiscount,
		&d.UsageLimit, &d.UsageCount, &d.StartsAt, &d.EndsAt, &d.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction, discountCode string) (*domain.Transaction, error) {
	if len(tx.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if tx.TotalAmount != tx.Subtotal+tx.TaxAmount-tx.DiscountAmount {
		return nil, store.ErrInvalidTransaction
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	if discountCode != "" {
		// Conditional increment: losing the quota race rejects the order
		// instead of over-redeeming.
		res, err := pgTx.ExecContext(ctx, `
			UPDATE discounts
			SET usage_count = usage_count + 1, updated_at = now()
			WHERE upper(code) = upper($1)
			  AND (usage_limit = 0 OR usage_count < usage_limit)
		`, discountCode)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrDiscountExhausted
		}
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.PaymentStatus == "" {
		tx.PaymentStatus = domain.PaymentStatusUnpaid
	}
	if tx.OrderStatus == "" {
		tx.OrderStatus = domain.OrderStatusPending
	}

	dayStart := nowDateUTC(tx.CreatedAt)
	var sameDay int
	err = pgTx.QueryRowContext(ctx, `
		SELECT count(*)
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2
	`, dayStart, dayStart.AddDate(0, 0, 1)).Scan(&sameDay)
	if err != nil {
		return nil, err
	}
	tx.Code = store.TransactionCode(tx.CreatedAt, sameDay+1)

	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO transactions (
			code, customer_name, customer_id, table_number, notes, cashier_username,
			payment_method, payment_status, order_status,
			subtotal, tax_amount, discount_amount, total_amount,
			paid_amount, change_amount, discount_code, payment_token, payment_url,
			gateway_response, created_at, paid_at, served_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,NULL,NULL)
		RETURNING id
	`, tx.Code, tx.CustomerName, nullIfEmpty(tx.CustomerID), tx.TableNumber, tx.Notes,
		nullIfEmpty(tx.CashierUsername), nullIfEmpty(string(tx.PaymentMethod)), tx.PaymentStatus,
		tx.OrderStatus, tx.Subtotal, tx.TaxAmount, tx.DiscountAmount, tx.TotalAmount,
		tx.PaidAmount, tx.ChangeAmount, nullIfEmpty(tx.DiscountCode), nullIfEmpty(tx.PaymentToken),
		nullIfEmpty(tx.PaymentURL), nullIfEmpty(tx.GatewayResponse), tx.CreatedAt).Scan(&tx.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}

	for i := range tx.Items {
		item := &tx.Items[i]
		item.TransactionID = tx.ID
		if item.Status == "" {
			item.Status = domain.ItemStatusPending
		}
		err := pgTx.QueryRowContext(ctx, `
			INSERT INTO transaction_items (
				transaction_id, menu_sku, name, description, image_url, category_name,
				unit_price, qty, notes, status
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id
		`, tx.ID, item.MenuSKU, item.Name, item.Description, item.ImageURL, item.CategoryName,
			item.UnitPrice, item.Qty, item.Notes, item.Status).Scan(&item.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return &tx, nil
}

const transactionColumns = `
	id, code, customer_name, COALESCE(customer_id, ''), table_number, notes,
	COALESCE(cashier_username, ''), COALESCE(payment_method, ''), payment_status, order_status,
	subtotal, tax_amount, discount_amount, total_amount, paid_amount, change_amount,
	COALESCE(discount_code, ''), COALESCE(payment_token, ''), COALESCE(payment_url, ''),
	COALESCE(gateway_response, ''), created_at, paid_at, served_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (*domain.Transaction, error) {
	var tx domain.Transaction
	var paidAt, servedAt sql.NullTime
	err := row.Scan(&tx.ID, &tx.Code, &tx.CustomerName, &tx.CustomerID, &tx.TableNumber, &tx.Notes,
		&tx.CashierUsername, &tx.PaymentMethod, &tx.PaymentStatus, &tx.OrderStatus,
		&tx.Subtotal, &tx.TaxAmount, &tx.DiscountAmount, &tx.TotalAmount, &tx.PaidAmount, &tx.ChangeAmount,
		&tx.DiscountCode, &tx.PaymentToken, &tx.PaymentURL,
		&tx.GatewayResponse, &tx.CreatedAt, &paidAt, &servedAt)
	if err != nil {
		return nil, err
	}
	tx.CreatedAt = tx.CreatedAt.UTC()
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		tx.PaidAt = &t
	}
	if servedAt.Valid {
		t := servedAt.Time.UTC()
		tx.ServedAt = &t
	}
	return &tx, nil
}

func (s *Store) loadItems(ctx context.Context, tx *domain.Transaction) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, menu_sku, name, description, image_url, category_name,
		       unit_price, qty, notes, status
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY id
	`, tx.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	items := make([]domain.TransactionItem, 0, 8)
	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.MenuSKU, &item.Name, &item.Description,
			&item.ImageURL, &item.CategoryName, &item.UnitPrice, &item.Qty, &item.Notes, &item.Status); err != nil {
			return err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	tx.Items = items
	return nil
}

func (s *Store) findTransaction(ctx context.Context, where string, arg any) (*domain.Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := s.loadItems(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Store) FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "id = $1", id)
}

func (s *Store) FindTransactionByCode(ctx context.Context, code string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "code = $1", code)
}

func (s *Store) FindTransactionByPaymentToken(ctx context.Context, token string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "payment_token = $1", token)
}

func (s *Store) SetPaymentMethod(ctx context.Context, id int64, method domain.PaymentMethod, token string, url string) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status domain.PaymentStatus
	err = pgTx.QueryRowContext(ctx, `
		SELECT payment_status
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.PaymentStatusPaid {
		return nil, store.ErrAlreadyPaid
	}
	if status == domain.PaymentStatusCancelled {
		return nil, store.ErrInvalidTransaction
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE transactions
		SET payment_method = $2, payment_token = $3, payment_url = $4, updated_at = now()
		WHERE id = $1
	`, id, method, nullIfEmpty(token), nullIfEmpty(url))
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.FindTransactionByID(ctx, id)
}

func (s *Store) MarkTransactionPaid(ctx context.Context, id int64, method domain.PaymentMethod, paidAmount int64, changeAmount int64, cashier string, at time.Time) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	// The row lock serializes concurrent attempts: the loser blocks here
	// until the winner commits, then observes paid and rejects.
	var status domain.PaymentStatus
	err = pgTx.QueryRowContext(ctx, `
		SELECT payment_status
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.PaymentStatusPaid {
		return nil, store.ErrAlreadyPaid
	}
	if status == domain.PaymentStatusCancelled {
		return nil, store.ErrInvalidTransaction
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE transactions
		SET payment_method = $2, payment_status = $3, paid_amount = $4, change_amount = $5,
		    cashier_username = $6, paid_at = $7, payment_token = NULL, updated_at = now()
		WHERE id = $1
	`, id, method, domain.PaymentStatusPaid, paidAmount, changeAmount, nullIfEmpty(cashier), at)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.FindTransactionByID(ctx, id)
}

func (s *Store) CancelTransactionPayment(ctx context.Context, id int64, at time.Time) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status domain.PaymentStatus
	err = pgTx.QueryRowContext(ctx, `
		SELECT payment_status
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.PaymentStatusPaid {
		return nil, store.ErrAlreadyPaid
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE transactions
		SET payment_status = $2, payment_token = NULL, updated_at = now()
		WHERE id = $1
	`, id, domain.PaymentStatusCancelled)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.FindTransactionByID(ctx, id)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, at time.Time) (*domain.Transaction, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET order_status = $2,
		    served_at = CASE WHEN $2 = 'served' THEN COALESCE(served_at, $3) ELSE served_at END,
		    updated_at = now()
		WHERE id = $1
	`, id, status, at)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.FindTransactionByID(ctx, id)
}

func (s *Store) UpdateItemStatus(ctx context.Context, itemID int64, status domain.ItemStatus) (*domain.TransactionItem, error) {
	var item domain.TransactionItem
	err := s.db.QueryRowContext(ctx, `
		UPDATE transaction_items
		SET status = $2
		WHERE id = $1
		RETURNING id, transaction_id, menu_sku, name, description, image_url, category_name,
		          unit_price, qty, notes, status
	`, itemID, status).Scan(&item.ID, &item.TransactionID, &item.MenuSKU, &item.Name, &item.Description,
		&item.ImageURL, &item.CategoryName, &item.UnitPrice, &item.Qty, &item.Notes, &item.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTransactions(ctx context.Context, query domain.TransactionQuery) ([]domain.Transaction, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if query.PaymentStatus != "" {
		args = append(args, query.PaymentStatus)
		where = append(where, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if query.OrderStatus != "" {
		args = append(args, query.OrderStatus)
		where = append(where, fmt.Sprintf("order_status = $%d", len(args)))
	}
	if !query.From.IsZero() {
		args = append(args, query.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !query.To.IsZero() {
		args = append(args, query.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	q := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := query.Limit
	if limit < 1 {
		limit = 50
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range transactions {
		if err := s.loadItems(ctx, &transactions[i]); err != nil {
			return nil, err
		}
	}
	return transactions, nil
}

func (s *Store) CountTransactionsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM transactions WHERE created_at >= $1
	`, since).Scan(&n)
	return n, err
}

func (s *Store) CreatePaymentAttempt(ctx context.Context, attempt domain.PaymentAttempt) error {
	if attempt.ID == "" {
		attempt.ID = xid.New("payatt")
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_attempts (id, transaction_id, method, status, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, attempt.ID, attempt.TransactionID, attempt.Method, attempt.Status, attempt.CreatedAt)
	return err
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	props, err := json.Marshal(entry.Properties)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, action, entity_type, entity_id, description, properties, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, nullIfEmpty(entry.ActorUsername), entry.Action, entry.EntityType, entry.EntityID,
		entry.Description, props, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	if from.IsZero() {
		from = time.Unix(0, 0).UTC()
	}
	if to.IsZero() {
		to = time.Now().UTC().AddDate(0, 0, 1)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(actor_username, ''), action, entity_type, entity_id, description, properties, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		var props []byte
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.Description, &props, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(props) > 0 {
			if err := json.Unmarshal(props, &entry.Properties); err != nil {
				return nil, err
			}
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("user %s already exists", user.Username)
	}
	return err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var u domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2, updated_at = now() WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nowDateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
