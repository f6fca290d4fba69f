package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusPreparing ItemStatus = "preparing"
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusServed    ItemStatus = "served"
)

type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodGateway PaymentMethod = "gateway"
	PaymentMethodTest    PaymentMethod = "test"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypeBOGO       DiscountType = "buy_one_get_one"
)

// ValidOrderStatus reports whether the value belongs to the closed order
// status set. Anything outside it is rejected at the boundary.
func ValidOrderStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusServed, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidItemStatus(status ItemStatus) bool {
	switch status {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady, ItemStatusServed:
		return true
	}
	return false
}

func ValidPaymentMethod(method PaymentMethod) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodGateway, PaymentMethodTest:
		return true
	}
	return false
}

type MenuItem struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Available   bool   `json:"available"`
}

// TransactionItem is an immutable snapshot of a menu item taken at order
// time: historical receipts must not change when the catalog changes later.
type TransactionItem struct {
	ID            int64      `json:"id"`
	TransactionID int64      `json:"transaction_id"`
	MenuSKU       string     `json:"menu_sku"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	ImageURL      string     `json:"image_url"`
	CategoryName  string     `json:"category_name"`
	UnitPrice     int64      `json:"unit_price"`
	Qty           int        `json:"qty"`
	Notes         string     `json:"notes,omitempty"`
	Status        ItemStatus `json:"status"`
}

// Transaction is the order+payment aggregate.
type Transaction struct {
	ID              int64             `json:"id"`
	Code            string            `json:"code"`
	CustomerName    string            `json:"customer_name"`
	CustomerID      string            `json:"customer_id,omitempty"`
	TableNumber     string            `json:"table_number"`
	Notes           string            `json:"notes,omitempty"`
	CashierUsername string            `json:"cashier_username,omitempty"`
	PaymentMethod   PaymentMethod     `json:"payment_method,omitempty"`
	PaymentStatus   PaymentStatus     `json:"payment_status"`
	OrderStatus     OrderStatus       `json:"order_status"`
	Subtotal        int64             `json:"subtotal"`
	TaxAmount       int64             `json:"tax_amount"`
	DiscountAmount  int64             `json:"discount_amount"`
	TotalAmount     int64             `json:"total_amount"`
	PaidAmount      int64             `json:"paid_amount"`
	ChangeAmount    int64             `json:"change_amount"`
	DiscountCode    string            `json:"discount_code,omitempty"`
	PaymentToken    string            `json:"-"`
	PaymentURL      string            `json:"payment_url,omitempty"`
	GatewayResponse string            `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	ServedAt        *time.Time        `json:"served_at,omitempty"`
	Items           []TransactionItem `json:"items"`
}

type Discount struct {
	ID              string       `json:"id"`
	Code            string       `json:"code"`
	Type            DiscountType `json:"type"`
	Value           int64        `json:"value"`
	MinimumAmount   int64        `json:"minimum_amount"`
	MaximumDiscount int64        `json:"maximum_discount"`
	UsageLimit      int          `json:"usage_limit"`
	UsageCount      int          `json:"usage_count"`
	StartsAt        time.Time    `json:"starts_at"`
	EndsAt          time.Time    `json:"ends_at"`
	Active          bool         `json:"active"`
}

// PaymentAttempt is the raw audit record stored for every gateway callback,
// regardless of outcome.
type PaymentAttempt struct {
	ID            string        `json:"id"`
	TransactionID int64         `json:"transaction_id"`
	Method        PaymentMethod `json:"method"`
	Status        string        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

type OrderItemRequest struct {
	SKU   string `json:"sku"`
	Qty   int    `json:"qty"`
	Notes string `json:"notes,omitempty"`
}

type CreateOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	CustomerID   string             `json:"customer_id,omitempty"`
	TableNumber  string             `json:"table_number"`
	Notes        string             `json:"notes,omitempty"`
	DiscountCode string             `json:"discount_code,omitempty"`
	Items        []OrderItemRequest `json:"items"`
}

type ProcessPaymentRequest struct {
	Method PaymentMethod `json:"method"`
}

type ProcessPaymentResponse struct {
	Transaction Transaction `json:"transaction"`
	PaymentURL  string      `json:"payment_url,omitempty"`
}

type ConfirmCashRequest struct {
	PaidAmount int64 `json:"paid_amount"`
}

type GatewayCallbackRequest struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
}

type UpdateItemStatusRequest struct {
	Status ItemStatus `json:"status"`
}

type CancelOrderRequest struct {
	Reason     string `json:"reason"`
	ManagerPIN string `json:"manager_pin"`
}

// TransactionQuery filters the staff dashboard listing.
type TransactionQuery struct {
	PaymentStatus PaymentStatus
	OrderStatus   OrderStatus
	From          time.Time
	To            time.Time
	Limit         int
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string         `json:"id"`
	ActorUsername string         `json:"actor_username"`
	Action        string         `json:"action"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	Description   string         `json:"description"`
	Properties    map[string]any `json:"properties,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
	RoleKitchen = "kitchen"
)
