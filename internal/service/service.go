package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"restoweb/backend/internal/cache"
	"restoweb/backend/internal/discount"
	"restoweb/backend/internal/domain"
	"restoweb/backend/internal/notify"
	"restoweb/backend/internal/store"
	"restoweb/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var (
	ErrForbidden               = errors.New("forbidden")
	ErrInsufficientCash        = errors.New("cash received below total amount")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderNotPaid            = errors.New("order is not paid")
	ErrPaymentTokenExpired     = errors.New("payment token expired")
)

const menuCacheKey = "menu:list"
const menuCacheTTL = 5 * time.Minute

type Options struct {
	TaxRatePercent  int64
	GatewayBaseURL  string
	PaymentTokenTTL time.Duration
	ManagerPIN      string
}

type Service struct {
	repo       store.Repository
	dispatcher *notify.Dispatcher
	menuCache  cache.MenuCache
	opts       Options
}

func New(repo store.Repository, dispatcher *notify.Dispatcher, menuCache cache.MenuCache, opts Options) *Service {
	if menuCache == nil {
		menuCache = cache.NoopMenuCache{}
	}
	if opts.TaxRatePercent < 0 || opts.TaxRatePercent > 100 {
		opts.TaxRatePercent = 11
	}
	if opts.PaymentTokenTTL <= 0 {
		opts.PaymentTokenTTL = 30 * time.Minute
	}
	if opts.GatewayBaseURL == "" {
		opts.GatewayBaseURL = "https://pay.example.test"
	}

	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		menuCache:  menuCache,
		opts:       opts,
	}
}

func (s *Service) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	if items, ok, err := s.menuCache.Get(ctx, menuCacheKey); err == nil && ok {
		return items, nil
	} else if err != nil {
		log.Printf("[service] WARN: menu cache read failed: %v", err)
	}

	items, err := s.repo.ListMenu(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.menuCache.Set(ctx, menuCacheKey, items, menuCacheTTL); err != nil {
		log.Printf("[service] WARN: menu cache write failed: %v", err)
	}
	return items, nil
}

func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Transaction, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.TableNumber = strings.TrimSpace(req.TableNumber)
	req.DiscountCode = strings.ToUpper(strings.TrimSpace(req.DiscountCode))

	if req.CustomerName == "" || req.TableNumber == "" || len(req.Items) == 0 {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}

	skus := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Qty < 1 {
			return domain.Transaction{}, store.ErrInvalidTransaction
		}
		skus = append(skus, strings.ToUpper(strings.TrimSpace(item.SKU)))
	}

	menu, err := s.repo.GetMenuItemsBySKUs(ctx, skus)
	if err != nil {
		return domain.Transaction{}, err
	}

	now := time.Now().UTC()
	subtotal := int64(0)
	items := make([]domain.TransactionItem, 0, len(req.Items))
	for i, reqItem := range req.Items {
		m, ok := menu[skus[i]]
		if !ok || !m.Available {
			return domain.Transaction{}, fmt.Errorf("menu item %s unavailable", skus[i])
		}
		items = append(items, domain.TransactionItem{
			MenuSKU:      m.SKU,
			Name:         m.Name,
			Description:  m.Description,
			ImageURL:     m.ImageURL,
			CategoryName: m.Category,
			UnitPrice:    m.Price,
			Qty:          reqItem.Qty,
			Notes:        strings.TrimSpace(reqItem.Notes),
			Status:       domain.ItemStatusPending,
		})
		subtotal += m.Price * int64(reqItem.Qty)
	}

	taxAmount := int64(math.Round(float64(subtotal) * float64(s.opts.TaxRatePercent) / 100))

	discountAmount := int64(0)
	if req.DiscountCode != "" {
		d, err := s.repo.GetDiscountByCode(ctx, req.DiscountCode)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Transaction{}, fmt.Errorf("discount code %s not found", req.DiscountCode)
			}
			return domain.Transaction{}, err
		}
		discountAmount = discount.Calculate(*d, subtotal, now)
		if discountAmount == 0 {
			return domain.Transaction{}, fmt.Errorf("discount code %s not applicable", req.DiscountCode)
		}
	}

	tx := domain.Transaction{
		CustomerName:   req.CustomerName,
		CustomerID:     strings.TrimSpace(req.CustomerID),
		TableNumber:    req.TableNumber,
		Notes:          strings.TrimSpace(req.Notes),
		PaymentStatus:  domain.PaymentStatusUnpaid,
		OrderStatus:    domain.OrderStatusPending,
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		TotalAmount:    subtotal + taxAmount - discountAmount,
		DiscountCode:   req.DiscountCode,
		CreatedAt:      now,
		Items:          items,
	}

	created, err := s.repo.CreateTransaction(ctx, tx, req.DiscountCode)
	if err != nil {
		return domain.Transaction{}, err
	}

	s.logAudit(ctx, "order_create", "transaction", created.Code, fmt.Sprintf("customer=%s table=%s total=%d", created.CustomerName, created.TableNumber, created.TotalAmount), map[string]any{
		"subtotal":        created.Subtotal,
		"tax_amount":      created.TaxAmount,
		"discount_amount": created.DiscountAmount,
		"total_amount":    created.TotalAmount,
	})
	s.dispatcher.System(ctx, fmt.Sprintf("Pesanan baru %s meja %s", created.Code, created.TableNumber), map[string]any{
		"transaction_id":   created.ID,
		"transaction_code": created.Code,
	}, []string{notify.AudienceAll})

	return *created, nil
}

func (s *Service) GetOrderByCode(ctx context.Context, code string) (domain.Transaction, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}
	tx, err := s.repo.FindTransactionByCode(ctx, code)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

// ProcessPayment starts the payment protocol chosen by the client. Cash only
// records the method; the money changes hands at ConfirmCashPayment. Gateway
// issues a single-use redirect token. Test pays immediately.
func (s *Service) ProcessPayment(ctx context.Context, id int64, req domain.ProcessPaymentRequest) (domain.ProcessPaymentResponse, error) {
	if !domain.ValidPaymentMethod(req.Method) {
		return domain.ProcessPaymentResponse{}, fmt.Errorf("unknown payment method %q", req.Method)
	}

	existing, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.ProcessPaymentResponse{}, err
	}
	if existing.PaymentStatus == domain.PaymentStatusPaid {
		return domain.ProcessPaymentResponse{}, store.ErrAlreadyPaid
	}

	switch req.Method {
	case domain.PaymentMethodCash:
		updated, err := s.repo.SetPaymentMethod(ctx, id, domain.PaymentMethodCash, "", "")
		if err != nil {
			return domain.ProcessPaymentResponse{}, err
		}
		return domain.ProcessPaymentResponse{Transaction: *updated}, nil

	case domain.PaymentMethodGateway:
		token := newPaymentToken()
		url := fmt.Sprintf("%s/pay/%s", strings.TrimRight(s.opts.GatewayBaseURL, "/"), token)
		updated, err := s.repo.SetPaymentMethod(ctx, id, domain.PaymentMethodGateway, token, url)
		if err != nil {
			return domain.ProcessPaymentResponse{}, err
		}
		s.logAudit(ctx, "payment_initiated", "transaction", updated.Code, "gateway redirect issued", map[string]any{
			"total_amount": updated.TotalAmount,
		})
		return domain.ProcessPaymentResponse{Transaction: *updated, PaymentURL: url}, nil

	case domain.PaymentMethodTest:
		paid, err := s.repo.MarkTransactionPaid(ctx, id, domain.PaymentMethodTest, existing.TotalAmount, 0, actorUsername(ctx), time.Now().UTC())
		if err != nil {
			return domain.ProcessPaymentResponse{}, err
		}
		s.paidSideEffects(ctx, *paid)
		return domain.ProcessPaymentResponse{Transaction: *paid}, nil
	}

	return domain.ProcessPaymentResponse{}, store.ErrInvalidTransaction
}

func (s *Service) ConfirmCashPayment(ctx context.Context, id int64, req domain.ConfirmCashRequest) (domain.Transaction, error) {
	existing, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if existing.PaymentStatus == domain.PaymentStatusPaid {
		return domain.Transaction{}, store.ErrAlreadyPaid
	}
	if req.PaidAmount < existing.TotalAmount {
		return domain.Transaction{}, ErrInsufficientCash
	}

	change := req.PaidAmount - existing.TotalAmount
	paid, err := s.repo.MarkTransactionPaid(ctx, id, domain.PaymentMethodCash, req.PaidAmount, change, actorUsername(ctx), time.Now().UTC())
	if err != nil {
		return domain.Transaction{}, err
	}

	s.paidSideEffects(ctx, *paid)
	return *paid, nil
}

// HandleGatewayCallback settles a redirect payment. The token is single-use:
// settling removes it, so a replayed callback gets not-found. A raw attempt
// record is stored whatever the outcome.
func (s *Service) HandleGatewayCallback(ctx context.Context, req domain.GatewayCallbackRequest) (domain.Transaction, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}

	existing, err := s.repo.FindTransactionByPaymentToken(ctx, token)
	if err != nil {
		return domain.Transaction{}, err
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = "success"
	}

	now := time.Now().UTC()
	if issued, ok := paymentTokenIssuedAt(token); ok && now.Sub(issued) > s.opts.PaymentTokenTTL {
		s.recordPaymentAttempt(ctx, existing.ID, domain.PaymentMethodGateway, "expired")
		cancelled, err := s.repo.CancelTransactionPayment(ctx, existing.ID, now)
		if err != nil {
			return domain.Transaction{}, err
		}
		s.logAudit(ctx, "payment_expired", "transaction", cancelled.Code, "gateway token past expiry", nil)
		message := fmt.Sprintf("Pembayaran %s kedaluwarsa", cancelled.Code)
		s.dispatcher.PaymentStatus(ctx, *cancelled, message)
		s.dispatcher.Customer(ctx, *cancelled, message, nil)
		return domain.Transaction{}, ErrPaymentTokenExpired
	}

	s.recordPaymentAttempt(ctx, existing.ID, domain.PaymentMethodGateway, status)

	if status != "success" {
		cancelled, err := s.repo.CancelTransactionPayment(ctx, existing.ID, now)
		if err != nil {
			return domain.Transaction{}, err
		}
		s.logAudit(ctx, "payment_failed", "transaction", cancelled.Code, fmt.Sprintf("gateway status=%s", status), nil)
		message := fmt.Sprintf("Pembayaran %s gagal", cancelled.Code)
		s.dispatcher.PaymentStatus(ctx, *cancelled, message)
		s.dispatcher.Customer(ctx, *cancelled, message, map[string]any{
			"payment_status": cancelled.PaymentStatus,
		})
		return *cancelled, nil
	}

	paid, err := s.repo.MarkTransactionPaid(ctx, existing.ID, domain.PaymentMethodGateway, existing.TotalAmount, 0, "", now)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.paidSideEffects(ctx, *paid)
	return *paid, nil
}

// allowedOrderTransitions is the forward-only kitchen flow. served and
// cancelled are terminal.
var allowedOrderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:   {domain.OrderStatusPreparing, domain.OrderStatusCancelled},
	domain.OrderStatusPreparing: {domain.OrderStatusReady, domain.OrderStatusCancelled},
	domain.OrderStatusReady:     {domain.OrderStatusServed, domain.OrderStatusCancelled},
	domain.OrderStatusServed:    {},
	domain.OrderStatusCancelled: {},
}

func transitionAllowed(from, to domain.OrderStatus) bool {
	for _, next := range allowedOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, req domain.UpdateOrderStatusRequest) (domain.Transaction, error) {
	if !domain.ValidOrderStatus(req.Status) {
		return domain.Transaction{}, fmt.Errorf("unknown order status %q", req.Status)
	}

	existing, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	previous := existing.OrderStatus
	if !transitionAllowed(previous, req.Status) {
		return domain.Transaction{}, ErrInvalidStatusTransition
	}
	// The kitchen only sees settled orders: nothing moves toward the pass
	// until the bill is paid. Cancellation stays open for unpaid orders.
	if req.Status != domain.OrderStatusCancelled && existing.PaymentStatus != domain.PaymentStatusPaid {
		return domain.Transaction{}, ErrOrderNotPaid
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, req.Status, time.Now().UTC())
	if err != nil {
		return domain.Transaction{}, err
	}

	detail := fmt.Sprintf("%s -> %s", previous, updated.OrderStatus)
	if note := strings.TrimSpace(req.Note); note != "" {
		detail += " note=" + note
	}
	s.logAudit(ctx, "order_status_update", "transaction", updated.Code, detail, map[string]any{
		"previous_status": previous,
		"new_status":      updated.OrderStatus,
	})

	message := orderStatusMessage(*updated)
	s.dispatcher.OrderStatus(ctx, *updated, previous, message)
	s.dispatcher.System(ctx, message, map[string]any{
		"transaction_id":   updated.ID,
		"transaction_code": updated.Code,
		"order_status":     updated.OrderStatus,
	}, notify.RolesForOrderStatus(updated.OrderStatus))
	if updated.OrderStatus == domain.OrderStatusReady || updated.OrderStatus == domain.OrderStatusServed {
		s.dispatcher.Customer(ctx, *updated, message, map[string]any{
			"order_status": updated.OrderStatus,
		})
	}

	return *updated, nil
}

func (s *Service) UpdateItemStatus(ctx context.Context, itemID int64, req domain.UpdateItemStatusRequest) (domain.TransactionItem, error) {
	if !domain.ValidItemStatus(req.Status) {
		return domain.TransactionItem{}, fmt.Errorf("unknown item status %q", req.Status)
	}

	item, err := s.repo.UpdateItemStatus(ctx, itemID, req.Status)
	if err != nil {
		return domain.TransactionItem{}, err
	}

	s.logAudit(ctx, "order_item_status_update", "transaction_item", strconv.FormatInt(item.ID, 10), fmt.Sprintf("%s -> %s", item.Name, item.Status), nil)
	return *item, nil
}

// CancelOrder kills an unpaid order. The manager PIN gates it the same way a
// void does at the register.
func (s *Service) CancelOrder(ctx context.Context, id int64, req domain.CancelOrderRequest) (domain.Transaction, error) {
	if s.opts.ManagerPIN == "" || strings.TrimSpace(req.ManagerPIN) != s.opts.ManagerPIN {
		return domain.Transaction{}, ErrForbidden
	}

	existing, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if existing.PaymentStatus == domain.PaymentStatusPaid {
		return domain.Transaction{}, store.ErrAlreadyPaid
	}
	if existing.OrderStatus == domain.OrderStatusServed || existing.OrderStatus == domain.OrderStatusCancelled {
		return domain.Transaction{}, ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	if _, err := s.repo.CancelTransactionPayment(ctx, id, now); err != nil {
		return domain.Transaction{}, err
	}
	previous := existing.OrderStatus
	updated, err := s.repo.UpdateOrderStatus(ctx, id, domain.OrderStatusCancelled, now)
	if err != nil {
		return domain.Transaction{}, err
	}

	reason := strings.TrimSpace(req.Reason)
	s.logAudit(ctx, "order_cancel", "transaction", updated.Code, "reason="+reason, map[string]any{
		"previous_status": previous,
		"reason":          reason,
	})
	message := fmt.Sprintf("Pesanan %s dibatalkan", updated.Code)
	s.dispatcher.OrderStatus(ctx, *updated, previous, message)
	s.dispatcher.System(ctx, message, map[string]any{
		"transaction_id":   updated.ID,
		"transaction_code": updated.Code,
		"reason":           reason,
	}, notify.RolesForOrderStatus(domain.OrderStatusCancelled))
	s.dispatcher.Customer(ctx, *updated, message, nil)

	return *updated, nil
}

func (s *Service) ListTransactions(ctx context.Context, query domain.TransactionQuery) ([]domain.Transaction, error) {
	if query.PaymentStatus != "" {
		switch query.PaymentStatus {
		case domain.PaymentStatusUnpaid, domain.PaymentStatusPaid, domain.PaymentStatusCancelled:
		default:
			return nil, store.ErrInvalidTransaction
		}
	}
	if query.OrderStatus != "" && !domain.ValidOrderStatus(query.OrderStatus) {
		return nil, store.ErrInvalidTransaction
	}
	if query.Limit < 1 || query.Limit > 200 {
		query.Limit = 50
	}
	return s.repo.ListTransactions(ctx, query)
}

// TodayOrderCount reports how many orders were opened since local midnight
// UTC. The cashier dashboard polls it for the header badge.
func (s *Service) TodayOrderCount(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.CountTransactionsSince(ctx, startOfDay)
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) CreateStaff(ctx context.Context, req domain.StaffCreateRequest) (domain.StaffUser, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.StaffUser{}, ErrForbidden
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || len(req.Password) < 8 {
		return domain.StaffUser{}, store.ErrInvalidTransaction
	}
	switch req.Role {
	case domain.RoleAdmin, domain.RoleCashier, domain.RoleKitchen:
	default:
		return domain.StaffUser{}, fmt.Errorf("unknown role %q", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.StaffUser{}, err
	}

	user := domain.UserAccount{
		Username:  req.Username,
		Password:  string(hash),
		Role:      req.Role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return domain.StaffUser{}, err
	}

	s.logAudit(ctx, "staff_create", "user", user.Username, "role="+user.Role, nil)
	return domain.StaffUser{Username: user.Username, Role: user.Role, Active: user.Active, CreatedAt: user.CreatedAt}, nil
}

func (s *Service) ListStaff(ctx context.Context) ([]domain.StaffUser, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	staff := make([]domain.StaffUser, 0, len(users))
	for _, u := range users {
		staff = append(staff, domain.StaffUser{Username: u.Username, Role: u.Role, Active: u.Active, CreatedAt: u.CreatedAt})
	}
	return staff, nil
}

// paidSideEffects runs after every successful transition to paid: one audit
// entry and the three notification categories.
func (s *Service) paidSideEffects(ctx context.Context, tx domain.Transaction) {
	s.logAudit(ctx, "payment_received", "transaction", tx.Code, fmt.Sprintf("method=%s total=%d", tx.PaymentMethod, tx.TotalAmount), map[string]any{
		"payment_method": tx.PaymentMethod,
		"total_amount":   tx.TotalAmount,
		"paid_amount":    tx.PaidAmount,
		"change_amount":  tx.ChangeAmount,
	})

	message := fmt.Sprintf("Pembayaran %s diterima (%s)", tx.Code, tx.PaymentMethod)
	s.dispatcher.PaymentStatus(ctx, tx, message)
	s.dispatcher.System(ctx, message, map[string]any{
		"transaction_id":   tx.ID,
		"transaction_code": tx.Code,
		"total_amount":     tx.TotalAmount,
	}, []string{domain.RoleAdmin, domain.RoleCashier})
	s.dispatcher.Customer(ctx, tx, fmt.Sprintf("Pembayaran pesanan %s berhasil", tx.Code), map[string]any{
		"payment_status": tx.PaymentStatus,
		"total_amount":   tx.TotalAmount,
	})
}

func (s *Service) recordPaymentAttempt(ctx context.Context, txID int64, method domain.PaymentMethod, status string) {
	if err := s.repo.CreatePaymentAttempt(ctx, domain.PaymentAttempt{
		ID:            xid.New("payatt"),
		TransactionID: txID,
		Method:        method,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] WARN: failed to record payment attempt tx=%d: %v", txID, err)
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, description string, properties map[string]any) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Description:   description,
		Properties:    properties,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s: %v", action, err)
	}
}

func actorUsername(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.Username
	}
	return ""
}

func orderStatusMessage(tx domain.Transaction) string {
	switch tx.OrderStatus {
	case domain.OrderStatusPreparing:
		return fmt.Sprintf("Pesanan %s sedang disiapkan", tx.Code)
	case domain.OrderStatusReady:
		return fmt.Sprintf("Pesanan %s siap diantar", tx.Code)
	case domain.OrderStatusServed:
		return fmt.Sprintf("Pesanan %s sudah disajikan", tx.Code)
	case domain.OrderStatusCancelled:
		return fmt.Sprintf("Pesanan %s dibatalkan", tx.Code)
	default:
		return fmt.Sprintf("Pesanan %s menunggu konfirmasi", tx.Code)
	}
}

// newPaymentToken embeds the issue time so expiry can be checked without an
// extra column; the uuid part keeps it unguessable.
func newPaymentToken() string {
	return fmt.Sprintf("pay-%d-%s", time.Now().UTC().Unix(), uuid.NewString())
}

func paymentTokenIssuedAt(token string) (time.Time, bool) {
	parts := strings.SplitN(token, "-", 3)
	if len(parts) != 3 || parts[0] != "pay" {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}
