package notify

import (
	"context"
	"fmt"
	"log"

	"restoweb/backend/internal/domain"
)

// Publisher delivers an event to a single channel. Implementations must be
// safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// Dispatcher routes events to channel namespaces.
type Dispatcher struct {
	pub    Publisher
	logger *log.Logger
}

func NewDispatcher(pub Publisher, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{pub: pub, logger: logger}
}

// System broadcasts to the shared notifications channel and, for each named
// role in the audience, to that role's private channel. An audience of "all"
// reaches the shared channel only.
func (d *Dispatcher) System(ctx context.Context, message string, data map[string]any, audience []string) {
	ev := newEvent(TypeSystem, message, data, audience)
	channels := []string{ChannelNotifications}
	for _, a := range audience {
		if a == AudienceAll {
			continue
		}
		channels = append(channels, ChannelNotifications+".role."+a)
	}
	d.publish(ctx, ev, channels...)
}

// PaymentStatus broadcasts a payment transition to the shared payments
// channel and the staff-only transactions channel.
func (d *Dispatcher) PaymentStatus(ctx context.Context, tx domain.Transaction, message string) {
	ev := newEvent(TypePaymentStatus, message, map[string]any{
		"transaction_id":   tx.ID,
		"transaction_code": tx.Code,
		"payment_status":   tx.PaymentStatus,
		"payment_method":   tx.PaymentMethod,
		"total_amount":     tx.TotalAmount,
	}, nil)
	d.publish(ctx, ev, ChannelPayments, ChannelTransactions)
}

// OrderStatus broadcasts an order transition to the shared orders channel and
// the restricted kitchen channel.
func (d *Dispatcher) OrderStatus(ctx context.Context, tx domain.Transaction, previous domain.OrderStatus, message string) {
	ev := newEvent(TypeOrderStatus, message, map[string]any{
		"transaction_id":   tx.ID,
		"transaction_code": tx.Code,
		"previous_status":  previous,
		"order_status":     tx.OrderStatus,
		"table_number":     tx.TableNumber,
	}, nil)
	d.publish(ctx, ev, ChannelOrders, ChannelKitchen)
}

// Customer notifies the transaction-scoped public channel, plus the
// customer's private channel when the order belongs to a registered customer.
func (d *Dispatcher) Customer(ctx context.Context, tx domain.Transaction, message string, data map[string]any) {
	ev := newEvent(TypeCustomer, message, data, nil)
	channels := []string{fmt.Sprintf("transaction.%d", tx.ID)}
	if tx.CustomerID != "" {
		channels = append(channels, "user."+tx.CustomerID)
	}
	d.publish(ctx, ev, channels...)
}

// RolesForOrderStatus returns which staff roles are told about a transition
// into the given order status.
func RolesForOrderStatus(status domain.OrderStatus) []string {
	switch status {
	case domain.OrderStatusPreparing:
		return []string{domain.RoleKitchen, domain.RoleAdmin}
	case domain.OrderStatusReady:
		return []string{domain.RoleCashier, domain.RoleAdmin}
	case domain.OrderStatusServed, domain.OrderStatusCancelled:
		return []string{domain.RoleKitchen, domain.RoleAdmin, domain.RoleCashier}
	default:
		return []string{AudienceAll}
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev Event, channels ...string) {
	if d.pub == nil {
		return
	}
	// Delivery outlives the originating request.
	ctx = context.WithoutCancel(ctx)
	go func() {
		for _, ch := range channels {
			if err := d.pub.Publish(ctx, ch, ev); err != nil {
				d.logger.Printf("[notify] publish %s to %s failed: %v", ev.Type, ch, err)
			}
		}
	}()
}
