package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ParseOrderStatus normalizes input; empty => pending.
// Returns (value, true) if valid; otherwise (pending, false).
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return OrderStatusPending, true
	case "pending":
		return OrderStatusPending, true
	case "processing":
		return OrderStatusProcessing, true
	case "shipped":
		return OrderStatusShipped, true
	case "delivered":
		return OrderStatusDelivered, true
	case "cancelled":
		return OrderStatusCancelled, true
	default:
		return OrderStatusPending, false
	}
}

// Order is the DB entity persisted in the orders table.
type Order struct {
	ID          int64           `db:"id"`
	CustomerID  int64           `db:"customer_id"`
	Status      OrderStatus     `db:"status"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	OrderDate   time.Time       `db:"order_date"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// OrderWithCustomer joins the customer columns used by list queries and
// the GraphQL order node.
type OrderWithCustomer struct {
	Order
	CustomerName  string  `db:"customer_name"`
	CustomerEmail string  `db:"customer_email"`
	CustomerPhone *string `db:"customer_phone"`
}

type OrderItem struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	ProductID       int64           `db:"product_id"`
	Quantity        int             `db:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`
}

// OrderItemDetail is an item row joined with its product name.
type OrderItemDetail struct {
	OrderItem
	ProductName string `db:"product_name"`
}
