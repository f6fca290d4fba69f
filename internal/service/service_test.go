package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"restoweb/backend/internal/cache"
	"restoweb/backend/internal/domain"
	"restoweb/backend/internal/notify"
	"restoweb/backend/internal/store"
	"restoweb/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store, *notify.Hub) {
	repo := memory.NewSeeded()
	hub := notify.NewHub()
	svc := New(repo, notify.NewDispatcher(hub, nil), cache.NoopMenuCache{}, Options{
		TaxRatePercent: 11,
		ManagerPIN:     "123456",
	})
	return svc, repo, hub
}

// sateNasgorKopi totals exactly 100000 with the seeded prices.
func sateNasgorKopi() []domain.OrderItemRequest {
	return []domain.OrderItemRequest{
		{SKU: "MNU-SATE-01", Qty: 1},
		{SKU: "MNU-NASGOR-01", Qty: 1},
		{SKU: "MNU-KOPI-01", Qty: 1},
	}
}

func createOrder(t *testing.T, svc *Service, discountCode string) domain.Transaction {
	t.Helper()
	tx, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		CustomerName: "Budi",
		TableNumber:  "7",
		DiscountCode: discountCode,
		Items:        sateNasgorKopi(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return tx
}

func payOrder(t *testing.T, svc *Service, id int64) {
	t.Helper()
	if _, err := svc.ProcessPayment(context.Background(), id, domain.ProcessPaymentRequest{Method: domain.PaymentMethodTest}); err != nil {
		t.Fatalf("pay order: %v", err)
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	if tx.Subtotal != 100_000 {
		t.Fatalf("subtotal = %d, want 100000", tx.Subtotal)
	}
	if tx.TaxAmount != 11_000 {
		t.Fatalf("tax = %d, want 11000", tx.TaxAmount)
	}
	if tx.TotalAmount != 111_000 {
		t.Fatalf("total = %d, want 111000", tx.TotalAmount)
	}
	if tx.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("payment status = %s, want unpaid", tx.PaymentStatus)
	}
	if tx.OrderStatus != domain.OrderStatusPending {
		t.Fatalf("order status = %s, want pending", tx.OrderStatus)
	}
	if len(tx.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(tx.Items))
	}
	for _, item := range tx.Items {
		if item.Name == "" || item.UnitPrice == 0 {
			t.Fatalf("item %s missing snapshot fields", item.MenuSKU)
		}
	}
}

func TestOrderCodeDailySequence(t *testing.T) {
	svc, _, _ := newTestService()

	first := createOrder(t, svc, "")
	second := createOrder(t, svc, "")

	wantFirst := store.TransactionCode(first.CreatedAt, 1)
	if first.Code != wantFirst {
		t.Fatalf("first code = %s, want %s", first.Code, wantFirst)
	}
	wantSecond := store.TransactionCode(second.CreatedAt, 2)
	if second.Code != wantSecond {
		t.Fatalf("second code = %s, want %s", second.Code, wantSecond)
	}
}

func TestCashPaymentLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := WithActor(context.Background(), domain.Actor{Username: "cashier", Role: domain.RoleCashier})
	tx := createOrder(t, svc, "")

	resp, err := svc.ProcessPayment(ctx, tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodCash})
	if err != nil {
		t.Fatalf("process payment: %v", err)
	}
	if resp.Transaction.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("status after phase 1 = %s, want unpaid", resp.Transaction.PaymentStatus)
	}
	if resp.Transaction.PaymentMethod != domain.PaymentMethodCash {
		t.Fatalf("method = %s, want cash", resp.Transaction.PaymentMethod)
	}

	paid, err := svc.ConfirmCashPayment(ctx, tx.ID, domain.ConfirmCashRequest{PaidAmount: 120_000})
	if err != nil {
		t.Fatalf("confirm cash: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("status = %s, want paid", paid.PaymentStatus)
	}
	if paid.ChangeAmount != 9_000 {
		t.Fatalf("change = %d, want 9000", paid.ChangeAmount)
	}
	if paid.PaidAt == nil {
		t.Fatal("paid_at not stamped")
	}
	if paid.CashierUsername != "cashier" {
		t.Fatalf("cashier = %q, want cashier", paid.CashierUsername)
	}
	if paid.TotalAmount != paid.Subtotal+paid.TaxAmount-paid.DiscountAmount {
		t.Fatal("total invariant broken after payment")
	}
}

func TestConfirmCashRejectsInsufficientAmount(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	if _, err := svc.ConfirmCashPayment(context.Background(), tx.ID, domain.ConfirmCashRequest{PaidAmount: 50_000}); !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v, want ErrInsufficientCash", err)
	}
}

func TestFixedDiscountApplied(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "WELCOME20")

	if tx.DiscountAmount != 20_000 {
		t.Fatalf("discount = %d, want 20000", tx.DiscountAmount)
	}
	if tx.TotalAmount != 100_000+11_000-20_000 {
		t.Fatalf("total = %d, want 91000", tx.TotalAmount)
	}
}

func TestPercentageDiscountApplied(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "HEMAT10")

	if tx.DiscountAmount != 10_000 {
		t.Fatalf("discount = %d, want 10000", tx.DiscountAmount)
	}
	if tx.TotalAmount != tx.Subtotal+tx.TaxAmount-tx.DiscountAmount {
		t.Fatal("total invariant broken")
	}
}

func TestDiscountUsageLimitEnforced(t *testing.T) {
	svc, _, _ := newTestService()

	createOrder(t, svc, "LASTCALL")

	_, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		CustomerName: "Siti",
		TableNumber:  "2",
		DiscountCode: "LASTCALL",
		Items:        sateNasgorKopi(),
	})
	if err == nil {
		t.Fatal("expected second use of exhausted discount to fail")
	}
}

func TestUnknownDiscountCodeRejected(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		CustomerName: "Budi",
		TableNumber:  "7",
		DiscountCode: "NOPE",
		Items:        sateNasgorKopi(),
	})
	if err == nil {
		t.Fatal("expected unknown discount code to fail")
	}
}

func TestTestMethodPaysImmediately(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	resp, err := svc.ProcessPayment(context.Background(), tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodTest})
	if err != nil {
		t.Fatalf("process payment: %v", err)
	}
	if resp.Transaction.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("status = %s, want paid", resp.Transaction.PaymentStatus)
	}
	if resp.Transaction.PaidAmount != resp.Transaction.TotalAmount {
		t.Fatalf("paid = %d, want %d", resp.Transaction.PaidAmount, resp.Transaction.TotalAmount)
	}
	if resp.Transaction.ChangeAmount != 0 {
		t.Fatalf("change = %d, want 0", resp.Transaction.ChangeAmount)
	}
}

func TestDuplicatePaymentRejected(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	if _, err := svc.ProcessPayment(context.Background(), tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodTest}); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if _, err := svc.ProcessPayment(context.Background(), tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodTest}); !errors.Is(err, store.ErrAlreadyPaid) {
		t.Fatalf("second payment err = %v, want ErrAlreadyPaid", err)
	}
	if _, err := svc.ConfirmCashPayment(context.Background(), tx.ID, domain.ConfirmCashRequest{PaidAmount: 200_000}); !errors.Is(err, store.ErrAlreadyPaid) {
		t.Fatalf("cash confirm after paid err = %v, want ErrAlreadyPaid", err)
	}
}

func TestGatewayPaymentLifecycle(t *testing.T) {
	svc, repo, _ := newTestService()
	tx := createOrder(t, svc, "")

	resp, err := svc.ProcessPayment(context.Background(), tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodGateway})
	if err != nil {
		t.Fatalf("process payment: %v", err)
	}
	if resp.PaymentURL == "" {
		t.Fatal("expected a payment url")
	}
	if resp.Transaction.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("status = %s, want unpaid while redirected", resp.Transaction.PaymentStatus)
	}

	stored, err := repo.FindTransactionByID(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PaymentToken == "" {
		t.Fatal("expected a payment token to be stored")
	}

	paid, err := svc.HandleGatewayCallback(context.Background(), domain.GatewayCallbackRequest{Token: stored.PaymentToken, Status: "success"})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("status = %s, want paid", paid.PaymentStatus)
	}
	if paid.PaidAmount != paid.TotalAmount {
		t.Fatalf("paid = %d, want total %d", paid.PaidAmount, paid.TotalAmount)
	}

	attempts := repo.PaymentAttemptsByTransaction(tx.ID)
	if len(attempts) != 1 || attempts[0].Status != "success" {
		t.Fatalf("attempts = %+v, want one success record", attempts)
	}

	// The token is single use: a replayed callback must not find it.
	if _, err := svc.HandleGatewayCallback(context.Background(), domain.GatewayCallbackRequest{Token: stored.PaymentToken}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("replay err = %v, want ErrNotFound", err)
	}
}

func TestGatewayCallbackFailedPath(t *testing.T) {
	svc, repo, hub := newTestService()
	tx := createOrder(t, svc, "")

	customer, cancelSub := hub.Subscribe(fmt.Sprintf("transaction.%d", tx.ID))
	defer cancelSub()

	if _, err := svc.ProcessPayment(context.Background(), tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodGateway}); err != nil {
		t.Fatalf("process payment: %v", err)
	}
	stored, _ := repo.FindTransactionByID(context.Background(), tx.ID)

	cancelled, err := svc.HandleGatewayCallback(context.Background(), domain.GatewayCallbackRequest{Token: stored.PaymentToken, Status: "failed"})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if cancelled.PaymentStatus != domain.PaymentStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.PaymentStatus)
	}
	if cancelled.PaidAmount != 0 {
		t.Fatalf("paid = %d, want 0 after failure", cancelled.PaidAmount)
	}

	attempts := repo.PaymentAttemptsByTransaction(tx.ID)
	if len(attempts) != 1 || attempts[0].Status != "failed" {
		t.Fatalf("attempts = %+v, want one failed record", attempts)
	}

	select {
	case <-customer:
	case <-time.After(2 * time.Second):
		t.Fatal("customer channel got no failure event")
	}
}

func TestGatewayCallbackExpiredToken(t *testing.T) {
	svc, repo, _ := newTestService()
	tx := createOrder(t, svc, "")

	staleToken := fmt.Sprintf("pay-%d-deadbeef", time.Now().Add(-2*time.Hour).Unix())
	if _, err := repo.SetPaymentMethod(context.Background(), tx.ID, domain.PaymentMethodGateway, staleToken, "http://example.test/pay"); err != nil {
		t.Fatalf("set method: %v", err)
	}

	if _, err := svc.HandleGatewayCallback(context.Background(), domain.GatewayCallbackRequest{Token: staleToken, Status: "success"}); !errors.Is(err, ErrPaymentTokenExpired) {
		t.Fatalf("err = %v, want ErrPaymentTokenExpired", err)
	}

	stored, _ := repo.FindTransactionByID(context.Background(), tx.ID)
	if stored.PaymentStatus != domain.PaymentStatusCancelled {
		t.Fatalf("status = %s, want cancelled after expiry", stored.PaymentStatus)
	}
	attempts := repo.PaymentAttemptsByTransaction(tx.ID)
	if len(attempts) != 1 || attempts[0].Status != "expired" {
		t.Fatalf("attempts = %+v, want one expired record", attempts)
	}
}

func TestConcurrentCashConfirmSingleWinner(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ConfirmCashPayment(context.Background(), tx.ID, domain.ConfirmCashRequest{PaidAmount: 150_000})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, store.ErrAlreadyPaid):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestOrderStatusForwardOnly(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")
	payOrder(t, svc, tx.ID)
	ctx := WithActor(context.Background(), domain.Actor{Username: "kitchen", Role: domain.RoleKitchen})

	// Skipping a stage is rejected.
	if _, err := svc.UpdateOrderStatus(ctx, tx.ID, domain.UpdateOrderStatusRequest{Status: domain.OrderStatusReady}); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("pending->ready err = %v, want ErrInvalidStatusTransition", err)
	}

	for _, status := range []domain.OrderStatus{domain.OrderStatusPreparing, domain.OrderStatusReady, domain.OrderStatusServed} {
		if _, err := svc.UpdateOrderStatus(ctx, tx.ID, domain.UpdateOrderStatusRequest{Status: status}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	// Backward and post-terminal moves are rejected.
	if _, err := svc.UpdateOrderStatus(ctx, tx.ID, domain.UpdateOrderStatusRequest{Status: domain.OrderStatusPreparing}); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("served->preparing err = %v, want ErrInvalidStatusTransition", err)
	}

	if _, err := svc.UpdateOrderStatus(ctx, tx.ID, domain.UpdateOrderStatusRequest{Status: "finished"}); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestKitchenTransitionsRequirePayment(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	if _, err := svc.UpdateOrderStatus(context.Background(), tx.ID, domain.UpdateOrderStatusRequest{Status: domain.OrderStatusPreparing}); !errors.Is(err, ErrOrderNotPaid) {
		t.Fatalf("unpaid pending->preparing err = %v, want ErrOrderNotPaid", err)
	}

	// Cancellation stays open while unpaid.
	ctx := WithActor(context.Background(), domain.Actor{Username: "cashier", Role: domain.RoleCashier})
	if _, err := svc.CancelOrder(ctx, tx.ID, domain.CancelOrderRequest{Reason: "walkout", ManagerPIN: "123456"}); err != nil {
		t.Fatalf("cancel unpaid order: %v", err)
	}
}

func TestServedAtStampedOnce(t *testing.T) {
	svc, repo, _ := newTestService()
	tx := createOrder(t, svc, "")
	payOrder(t, svc, tx.ID)
	ctx := context.Background()

	for _, status := range []domain.OrderStatus{domain.OrderStatusPreparing, domain.OrderStatusReady, domain.OrderStatusServed} {
		if _, err := svc.UpdateOrderStatus(ctx, tx.ID, domain.UpdateOrderStatusRequest{Status: status}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	served, _ := repo.FindTransactionByID(ctx, tx.ID)
	if served.ServedAt == nil {
		t.Fatal("served_at not stamped")
	}
	first := *served.ServedAt

	// A direct re-apply at the store layer must not overwrite the stamp.
	time.Sleep(5 * time.Millisecond)
	again, err := repo.UpdateOrderStatus(ctx, tx.ID, domain.OrderStatusServed, time.Now().UTC())
	if err != nil {
		t.Fatalf("re-apply served: %v", err)
	}
	if !again.ServedAt.Equal(first) {
		t.Fatalf("served_at overwritten: %v -> %v", first, *again.ServedAt)
	}
}

func TestUpdateItemStatus(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	item, err := svc.UpdateItemStatus(context.Background(), tx.Items[0].ID, domain.UpdateItemStatusRequest{Status: domain.ItemStatusPreparing})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if item.Status != domain.ItemStatusPreparing {
		t.Fatalf("status = %s, want preparing", item.Status)
	}

	if _, err := svc.UpdateItemStatus(context.Background(), tx.Items[0].ID, domain.UpdateItemStatusRequest{Status: "burnt"}); err == nil {
		t.Fatal("expected unknown item status to be rejected")
	}
}

func TestCancelOrderRequiresManagerPIN(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")
	ctx := WithActor(context.Background(), domain.Actor{Username: "cashier", Role: domain.RoleCashier})

	if _, err := svc.CancelOrder(ctx, tx.ID, domain.CancelOrderRequest{Reason: "customer left", ManagerPIN: "000000"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("wrong pin err = %v, want ErrForbidden", err)
	}

	cancelled, err := svc.CancelOrder(ctx, tx.ID, domain.CancelOrderRequest{Reason: "customer left", ManagerPIN: "123456"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.OrderStatus != domain.OrderStatusCancelled {
		t.Fatalf("order status = %s, want cancelled", cancelled.OrderStatus)
	}
	if cancelled.PaymentStatus != domain.PaymentStatusCancelled {
		t.Fatalf("payment status = %s, want cancelled", cancelled.PaymentStatus)
	}
}

func TestCancelPaidOrderRejected(t *testing.T) {
	svc, _, _ := newTestService()
	tx := createOrder(t, svc, "")

	if _, err := svc.ProcessPayment(context.Background(), tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodTest}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := svc.CancelOrder(context.Background(), tx.ID, domain.CancelOrderRequest{ManagerPIN: "123456"}); !errors.Is(err, store.ErrAlreadyPaid) {
		t.Fatalf("err = %v, want ErrAlreadyPaid", err)
	}
}

func TestPaidNotificationsFanOut(t *testing.T) {
	svc, _, hub := newTestService()
	tx := createOrder(t, svc, "")

	payments, cancelPayments := hub.Subscribe(notify.ChannelPayments)
	defer cancelPayments()
	staff, cancelStaff := hub.Subscribe(notify.ChannelNotifications + ".role.cashier")
	defer cancelStaff()
	customer, cancelCustomer := hub.Subscribe(fmt.Sprintf("transaction.%d", tx.ID))
	defer cancelCustomer()

	if _, err := svc.ProcessPayment(context.Background(), tx.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodTest}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	for name, ch := range map[string]<-chan notify.Event{
		"payments channel": payments,
		"cashier role":     staff,
		"customer channel": customer,
	} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s event", name)
		}
	}
}

func TestOrderStatusNotifiesKitchenRole(t *testing.T) {
	svc, _, hub := newTestService()
	tx := createOrder(t, svc, "")
	payOrder(t, svc, tx.ID)

	kitchenRole, cancel := hub.Subscribe(notify.ChannelNotifications + ".role.kitchen")
	defer cancel()

	if _, err := svc.UpdateOrderStatus(context.Background(), tx.ID, domain.UpdateOrderStatusRequest{Status: domain.OrderStatusPreparing}); err != nil {
		t.Fatalf("update: %v", err)
	}

	select {
	case ev := <-kitchenRole:
		if ev.Type != notify.TypeSystem {
			t.Fatalf("type = %s, want system", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("kitchen role channel got no event for preparing")
	}
}

func TestListTransactionsFilters(t *testing.T) {
	svc, _, _ := newTestService()
	first := createOrder(t, svc, "")
	createOrder(t, svc, "")

	if _, err := svc.ProcessPayment(context.Background(), first.ID, domain.ProcessPaymentRequest{Method: domain.PaymentMethodTest}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	paid, err := svc.ListTransactions(context.Background(), domain.TransactionQuery{PaymentStatus: domain.PaymentStatusPaid})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paid) != 1 || paid[0].ID != first.ID {
		t.Fatalf("paid list = %+v, want only the paid order", paid)
	}

	unpaid, err := svc.ListTransactions(context.Background(), domain.TransactionQuery{PaymentStatus: domain.PaymentStatusUnpaid})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unpaid) != 1 {
		t.Fatalf("unpaid count = %d, want 1", len(unpaid))
	}
}

func TestAuditLogListingIsAdminOnly(t *testing.T) {
	svc, _, _ := newTestService()
	createOrder(t, svc, "")

	if _, err := svc.ListAuditLogs(context.Background(), time.Time{}, time.Time{}, 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous err = %v, want ErrForbidden", err)
	}

	ctx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
	logs, err := svc.ListAuditLogs(ctx, time.Time{}, time.Time{}, 10)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(logs) == 0 {
		t.Fatal("expected at least the order_create audit entry")
	}
}

func TestCreateStaffValidation(t *testing.T) {
	svc, _, _ := newTestService()
	admin := WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})

	if _, err := svc.CreateStaff(context.Background(), domain.StaffCreateRequest{Username: "dewi", Password: "longenough", Role: domain.RoleKitchen}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin err = %v, want ErrForbidden", err)
	}
	if _, err := svc.CreateStaff(admin, domain.StaffCreateRequest{Username: "dewi", Password: "short", Role: domain.RoleKitchen}); err == nil {
		t.Fatal("expected short password to be rejected")
	}
	if _, err := svc.CreateStaff(admin, domain.StaffCreateRequest{Username: "dewi", Password: "longenough", Role: "chef"}); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}

	created, err := svc.CreateStaff(admin, domain.StaffCreateRequest{Username: "Dewi", Password: "longenough", Role: domain.RoleKitchen})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if created.Username != "dewi" || created.Role != domain.RoleKitchen {
		t.Fatalf("created = %+v", created)
	}

	staff, err := svc.ListStaff(admin)
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	found := false
	for _, u := range staff {
		if u.Username == "dewi" {
			found = true
		}
	}
	if !found {
		t.Fatal("new staff account missing from listing")
	}
}
