// Package notify fans events out to pub/sub channels. The dispatcher decides
// which channels an event reaches; the Publisher decides how a channel is
// delivered. Publish is best-effort: a failed delivery is logged and never
// fails the operation that raised the event.
package notify

import (
	"time"

	"restoweb/backend/internal/xid"
)

// Event is the payload pushed to every subscriber. ID is the de-duplication
// key for subscribers that listen on more than one channel.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Audience  []string       `json:"audience,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Event type tags.
const (
	TypeSystem        = "system"
	TypePaymentStatus = "payment.status_changed"
	TypeOrderStatus   = "order.status_changed"
	TypeCustomer      = "customer"
)

// Shared channel namespaces.
const (
	ChannelNotifications = "notifications"
	ChannelPayments      = "payments"
	ChannelTransactions  = "transactions"
	ChannelOrders        = "orders"
	ChannelKitchen       = "kitchen"
)

// AudienceAll targets the shared notification channel with no role fan-out.
const AudienceAll = "all"

func newEvent(eventType, message string, data map[string]any, audience []string) Event {
	return Event{
		ID:        xid.New("evt"),
		Type:      eventType,
		Message:   message,
		Data:      data,
		Audience:  audience,
		CreatedAt: time.Now().UTC(),
	}
}
