package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/jmehdipour/crmbeat/internal/model"
)

func TestListOrdersByStatusAndDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrdersRepository(db)

	from := time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)
	orderDate := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	now := time.Now()

	cols := []string{
		"id", "customer_id", "status", "total_amount", "order_date",
		"created_at", "updated_at", "customer_name", "customer_email", "customer_phone",
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE 1=1 AND o.status = ? AND o.order_date >= ? ORDER BY o.order_date DESC`)).
		WithArgs("pending", from).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(12, 3, "pending", "1249.98", orderDate, now, now, "Alice Johnson", "alice@example.com", "+1234567890"))

	rows, err := repo.List(context.Background(), OrderFilter{
		Status:       model.OrderStatusPending,
		OrderDateGte: &from,
		OrderBy:      "-orderDate",
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	o := rows[0]
	if o.ID != 12 || o.Status != model.OrderStatusPending {
		t.Fatalf("order mapped wrong: %+v", o)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("1249.98")) {
		t.Fatalf("expected total 1249.98, got %s", o.TotalAmount)
	}
	if o.CustomerName != "Alice Johnson" || o.CustomerEmail != "alice@example.com" {
		t.Fatalf("customer columns mapped wrong: %+v", o)
	}
	if o.CustomerPhone == nil || *o.CustomerPhone != "+1234567890" {
		t.Fatalf("customer phone mapped wrong: %v", o.CustomerPhone)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountOrdersWithProductNameFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrdersRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM orders o JOIN customers c ON c.id = o.customer_id WHERE 1=1 AND o.status = ?`+
			` AND EXISTS (SELECT 1 FROM order_items i JOIN products p ON p.id = i.product_id WHERE i.order_id = o.id AND p.name LIKE ?)`)).
		WithArgs("delivered", "%Laptop%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background(), OrderFilter{
		Status:              model.OrderStatusDelivered,
		ProductNameContains: "Laptop",
	})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestItemsByOrderID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrdersRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price_at_purchase,
		       p.name AS product_name
		  FROM order_items i
		  JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = ?
		 ORDER BY i.id
	`)).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price_at_purchase", "product_name"}).
			AddRow(1, 12, 2, 1, "899.99", "Smartphone X").
			AddRow(2, 12, 3, 2, "249.99", "Wireless Headphones"))

	items, err := repo.ItemsByOrderID(context.Background(), 12)
	if err != nil {
		t.Fatalf("ItemsByOrderID failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ProductName != "Smartphone X" || items[1].Quantity != 2 {
		t.Fatalf("items mapped wrong: %+v", items)
	}
}

func TestInsertItem(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrdersRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES (?, ?, ?, ?)
	`)).
		WithArgs(int64(12), int64(3), 1, decimal.RequireFromString("249.99")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	err = repo.InsertItem(context.Background(), tx, model.OrderItem{
		OrderID:         12,
		ProductID:       3,
		Quantity:        1,
		PriceAtPurchase: decimal.RequireFromString("249.99"),
	})
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
