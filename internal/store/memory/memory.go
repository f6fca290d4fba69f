package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"restoweb/backend/internal/domain"
	"restoweb/backend/internal/store"
	"restoweb/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	menu             map[string]domain.MenuItem
	discountsByCode  map[string]domain.Discount
	transactionsByID map[int64]*domain.Transaction
	idByCode         map[string]int64
	idByToken        map[string]int64
	nextTxID         int64
	nextItemID       int64
	attempts         []domain.PaymentAttempt
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory staff accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD, SEED_CASHIER_PASSWORD and
// SEED_KITCHEN_PASSWORD. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. In production the backend uses PostgreSQL
// (DATABASE_URL set) and this seeding never runs.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	kitchenPwd := envOr("SEED_KITCHEN_PASSWORD", "kitchen123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" || os.Getenv("SEED_KITCHEN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD, SEED_CASHIER_PASSWORD and SEED_KITCHEN_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"cashier", cashierPwd, domain.RoleCashier},
		{"kitchen", kitchenPwd, domain.RoleKitchen},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	menu := []domain.MenuItem{
		{SKU: "MNU-NASGOR-01", Name: "Nasi Goreng Spesial", Category: "main", Price: 38_000, Available: true},
		{SKU: "MNU-AYAM-01", Name: "Ayam Bakar Madu", Category: "main", Price: 45_000, Available: true},
		{SKU: "MNU-MIE-01", Name: "Mie Goreng Jawa", Category: "main", Price: 32_000, Available: true},
		{SKU: "MNU-SOTO-01", Name: "Soto Ayam Lamongan", Category: "main", Price: 30_000, Available: true},
		{SKU: "MNU-SATE-01", Name: "Sate Ayam 10 Tusuk", Category: "main", Price: 40_000, Available: true},
		{SKU: "MNU-GADO-01", Name: "Gado-Gado", Category: "main", Price: 28_000, Available: true},
		{SKU: "MNU-TAHU-01", Name: "Tahu Goreng Crispy", Category: "appetizer", Price: 15_000, Available: true},
		{SKU: "MNU-PISANG-01", Name: "Pisang Goreng Keju", Category: "dessert", Price: 18_000, Available: true},
		{SKU: "MNU-ESTEH-01", Name: "Es Teh Manis", Category: "beverage", Price: 8_000, Available: true},
		{SKU: "MNU-JERUK-01", Name: "Es Jeruk Peras", Category: "beverage", Price: 12_000, Available: true},
		{SKU: "MNU-KOPI-01", Name: "Kopi Susu Gula Aren", Category: "beverage", Price: 22_000, Available: true},
		{SKU: "MNU-AIR-01", Name: "Air Mineral", Category: "beverage", Price: 6_000, Available: true},
	}

	now := time.Now().UTC()
	discounts := []domain.Discount{
		{
			ID:              xid.New("disc"),
			Code:            "HEMAT10",
			Type:            domain.DiscountTypePercentage,
			Value:           10,
			MaximumDiscount: 15_000,
			StartsAt:        now.AddDate(0, -1, 0),
			EndsAt:          now.AddDate(0, 2, 0),
			Active:          true,
		},
		{
			ID:            xid.New("disc"),
			Code:          "WELCOME20",
			Type:          domain.DiscountTypeFixed,
			Value:         20_000,
			MinimumAmount: 50_000,
			UsageLimit:    100,
			StartsAt:      now.AddDate(0, -1, 0),
			EndsAt:        now.AddDate(0, 2, 0),
			Active:        true,
		},
		{
			ID:         xid.New("disc"),
			Code:       "LASTCALL",
			Type:       domain.DiscountTypeFixed,
			Value:      10_000,
			UsageLimit: 1,
			StartsAt:   now.AddDate(0, -1, 0),
			EndsAt:     now.AddDate(0, 2, 0),
			Active:     true,
		},
	}

	menuMap := make(map[string]domain.MenuItem, len(menu))
	for _, m := range menu {
		menuMap[m.SKU] = m
	}
	discountMap := make(map[string]domain.Discount, len(discounts))
	for _, d := range discounts {
		discountMap[strings.ToUpper(d.Code)] = d
	}

	return &Store{
		menu:             menuMap,
		discountsByCode:  discountMap,
		transactionsByID: make(map[int64]*domain.Transaction),
		idByCode:         make(map[string]int64),
		idByToken:        make(map[string]int64),
		attempts:         make([]domain.PaymentAttempt, 0, 64),
		auditLogs:        make([]domain.AuditLog, 0, 128),
		usersByUsername:  seedUsers(),
	}
}

func (s *Store) ListMenu(_ context.Context) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		if !m.Available {
			continue
		}
		items = append(items, m)
	}

	slices.SortFunc(items, func(a, b domain.MenuItem) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return items, nil
}

func (s *Store) GetMenuItemsBySKUs(_ context.Context, skus []string) (map[string]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]domain.MenuItem, len(skus))
	for _, sku := range skus {
		if m, ok := s.menu[sku]; ok {
			found[sku] = m
		}
	}
	return found, nil
}

func (s *Store) GetDiscountByCode(_ context.Context, code string) (*domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.discountsByCode[strings.ToUpper(code)]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := d
	return &found, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction, discountCode string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if tx.TotalAmount != tx.Subtotal+tx.TaxAmount-tx.DiscountAmount {
		return nil, store.ErrInvalidTransaction
	}

	if discountCode != "" {
		key := strings.ToUpper(discountCode)
		d, ok := s.discountsByCode[key]
		if !ok {
			return nil, store.ErrNotFound
		}
		if d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit {
			return nil, store.ErrDiscountExhausted
		}
		d.UsageCount++
		s.discountsByCode[key] = d
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.nextTxID++
	tx.ID = s.nextTxID
	tx.Code = store.TransactionCode(tx.CreatedAt, s.countSameDayLocked(tx.CreatedAt)+1)
	if tx.PaymentStatus == "" {
		tx.PaymentStatus = domain.PaymentStatusUnpaid
	}
	if tx.OrderStatus == "" {
		tx.OrderStatus = domain.OrderStatusPending
	}
	for i := range tx.Items {
		s.nextItemID++
		tx.Items[i].ID = s.nextItemID
		tx.Items[i].TransactionID = tx.ID
		if tx.Items[i].Status == "" {
			tx.Items[i].Status = domain.ItemStatusPending
		}
	}

	stored := cloneTransaction(&tx)
	s.transactionsByID[tx.ID] = stored
	s.idByCode[tx.Code] = tx.ID

	return cloneTransaction(stored), nil
}

func (s *Store) countSameDayLocked(at time.Time) int {
	y, m, d := at.UTC().Date()
	n := 0
	for _, tx := range s.transactionsByID {
		ty, tm, td := tx.CreatedAt.UTC().Date()
		if ty == y && tm == m && td == d {
			n++
		}
	}
	return n
}

func (s *Store) FindTransactionByID(_ context.Context, id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) FindTransactionByCode(_ context.Context, code string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.idByCode[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(s.transactionsByID[id]), nil
}

func (s *Store) FindTransactionByPaymentToken(_ context.Context, token string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.idByToken[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(s.transactionsByID[id]), nil
}

func (s *Store) SetPaymentMethod(_ context.Context, id int64, method domain.PaymentMethod, token string, url string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.PaymentStatus == domain.PaymentStatusPaid {
		return nil, store.ErrAlreadyPaid
	}
	if tx.PaymentStatus == domain.PaymentStatusCancelled {
		return nil, store.ErrInvalidTransaction
	}

	if tx.PaymentToken != "" {
		delete(s.idByToken, tx.PaymentToken)
	}
	tx.PaymentMethod = method
	tx.PaymentToken = token
	tx.PaymentURL = url
	if token != "" {
		s.idByToken[token] = id
	}
	return cloneTransaction(tx), nil
}

func (s *Store) MarkTransactionPaid(_ context.Context, id int64, method domain.PaymentMethod, paidAmount int64, changeAmount int64, cashier string, at time.Time) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.PaymentStatus == domain.PaymentStatusPaid {
		return nil, store.ErrAlreadyPaid
	}
	if tx.PaymentStatus == domain.PaymentStatusCancelled {
		return nil, store.ErrInvalidTransaction
	}

	tx.PaymentMethod = method
	tx.PaymentStatus = domain.PaymentStatusPaid
	tx.PaidAmount = paidAmount
	tx.ChangeAmount = changeAmount
	tx.CashierUsername = cashier
	tx.PaidAt = &at
	if tx.PaymentToken != "" {
		delete(s.idByToken, tx.PaymentToken)
		tx.PaymentToken = ""
	}
	return cloneTransaction(tx), nil
}

func (s *Store) CancelTransactionPayment(_ context.Context, id int64, at time.Time) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.PaymentStatus == domain.PaymentStatusPaid {
		return nil, store.ErrAlreadyPaid
	}

	tx.PaymentStatus = domain.PaymentStatusCancelled
	if tx.PaymentToken != "" {
		delete(s.idByToken, tx.PaymentToken)
		tx.PaymentToken = ""
	}
	return cloneTransaction(tx), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus, at time.Time) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	tx.OrderStatus = status
	if status == domain.OrderStatusServed && tx.ServedAt == nil {
		tx.ServedAt = &at
	}
	return cloneTransaction(tx), nil
}

func (s *Store) UpdateItemStatus(_ context.Context, itemID int64, status domain.ItemStatus) (*domain.TransactionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.transactionsByID {
		for i := range tx.Items {
			if tx.Items[i].ID == itemID {
				tx.Items[i].Status = status
				item := tx.Items[i]
				return &item, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, query domain.TransactionQuery) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.transactionsByID))
	for _, tx := range s.transactionsByID {
		if query.PaymentStatus != "" && tx.PaymentStatus != query.PaymentStatus {
			continue
		}
		if query.OrderStatus != "" && tx.OrderStatus != query.OrderStatus {
			continue
		}
		if !query.From.IsZero() && tx.CreatedAt.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && tx.CreatedAt.After(query.To) {
			continue
		}
		out = append(out, *cloneTransaction(tx))
	}

	slices.SortFunc(out, func(a, b domain.Transaction) int {
		switch {
		case a.CreatedAt.After(b.CreatedAt):
			return -1
		case a.CreatedAt.Before(b.CreatedAt):
			return 1
		default:
			return int(b.ID - a.ID)
		}
	})

	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *Store) CountTransactionsSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, tx := range s.transactionsByID {
		if !tx.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreatePaymentAttempt(_ context.Context, attempt domain.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt.ID == "" {
		attempt.ID = xid.New("payatt")
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	s.attempts = append(s.attempts, attempt)
	return nil
}

// PaymentAttemptsByTransaction is used by tests to assert the audit trail.
func (s *Store) PaymentAttemptsByTransaction(id int64) []domain.PaymentAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.PaymentAttempt{}
	for _, a := range s.attempts {
		if a.TransactionID == id {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditLog, 0, len(s.auditLogs))
	for _, entry := range s.auditLogs {
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		out = append(out, entry)
	}

	slices.SortFunc(out, func(a, b domain.AuditLog) int {
		switch {
		case a.CreatedAt.After(b.CreatedAt):
			return -1
		case a.CreatedAt.Before(b.CreatedAt):
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return fmt.Errorf("user %s already exists", user.Username)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := u
	return &found, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = password
	s.usersByUsername[username] = u
	return nil
}

func cloneTransaction(tx *domain.Transaction) *domain.Transaction {
	copied := *tx
	copied.Items = make([]domain.TransactionItem, len(tx.Items))
	copy(copied.Items, tx.Items)
	if tx.PaidAt != nil {
		t := *tx.PaidAt
		copied.PaidAt = &t
	}
	if tx.ServedAt != nil {
		t := *tx.ServedAt
		copied.ServedAt = &t
	}
	return &copied
}
