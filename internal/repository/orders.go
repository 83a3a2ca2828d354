package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// OrdersRepository defines persistence for orders and order_items.
type OrdersRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, o model.Order) (int64, error)
	InsertItem(ctx context.Context, tx *sqlx.Tx, item model.OrderItem) error
	GetByID(ctx context.Context, id int64) (*model.OrderWithCustomer, error)
	List(ctx context.Context, f OrderFilter) ([]model.OrderWithCustomer, error)
	Count(ctx context.Context, f OrderFilter) (int64, error)
	ItemsByOrderID(ctx context.Context, orderID int64) ([]model.OrderItemDetail, error)
}

type OrderFilter struct {
	CustomerID            int64
	Status                model.OrderStatus
	OrderDateGte          *time.Time
	OrderDateLte          *time.Time
	TotalAmountGte        *decimal.Decimal
	TotalAmountLte        *decimal.Decimal
	CustomerNameContains  string
	CustomerEmailContains string
	ProductNameContains   string
	ProductID             int64
	OrderBy               string
	Limit                 int
	Offset                int
}

type OrdersRepositoryImpl struct {
	db *sqlx.DB
}

func NewOrdersRepository(db *sqlx.DB) *OrdersRepositoryImpl {
	return &OrdersRepositoryImpl{db: db}
}

var _ OrdersRepository = (*OrdersRepositoryImpl)(nil)

var orderOrderColumns = map[string]string{
	"id":           "o.id",
	"orderDate":    "o.order_date",
	"order_date":   "o.order_date",
	"totalAmount":  "o.total_amount",
	"total_amount": "o.total_amount",
	"status":       "o.status",
}

const orderSelect = `
		SELECT o.id, o.customer_id, o.status, o.total_amount, o.order_date,
		       o.created_at, o.updated_at,
		       c.name  AS customer_name,
		       c.email AS customer_email,
		       c.phone AS customer_phone
		  FROM orders o
		  JOIN customers c ON c.id = o.customer_id
`

func (r *OrdersRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, o model.Order) (int64, error) {
	const q = `
		INSERT INTO orders (customer_id, status, total_amount, order_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, NOW(), NOW())
	`
	var id int64
	err := withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, o.CustomerID, o.Status.String(), o.TotalAmount, o.OrderDate)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (r *OrdersRepositoryImpl) InsertItem(ctx context.Context, tx *sqlx.Tx, item model.OrderItem) error {
	const q = `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES (?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, q, item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase)
	return err
}

func (r *OrdersRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.OrderWithCustomer, error) {
	var o model.OrderWithCustomer
	err := r.db.GetContext(ctx, &o, orderSelect+` WHERE o.id = ? LIMIT 1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrdersRepositoryImpl) List(ctx context.Context, f OrderFilter) ([]model.OrderWithCustomer, error) {
	q := orderSelect + ` WHERE 1=1`
	where, args := buildOrderWhere(f)
	q += where
	q += " ORDER BY " + orderClause(f.OrderBy, orderOrderColumns, "o.id")
	q, args = pageArgs(q, args, f.Limit, f.Offset)

	var rows []model.OrderWithCustomer
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *OrdersRepositoryImpl) Count(ctx context.Context, f OrderFilter) (int64, error) {
	q := `SELECT COUNT(*) FROM orders o JOIN customers c ON c.id = o.customer_id WHERE 1=1`
	where, args := buildOrderWhere(f)
	q += where

	var n int64
	if err := r.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, err
	}
	return n, nil
}

func buildOrderWhere(f OrderFilter) (string, []any) {
	var q string
	var args []any
	if f.CustomerID > 0 {
		q += " AND o.customer_id = ?"
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		q += " AND o.status = ?"
		args = append(args, f.Status.String())
	}
	if f.OrderDateGte != nil {
		q += " AND o.order_date >= ?"
		args = append(args, *f.OrderDateGte)
	}
	if f.OrderDateLte != nil {
		q += " AND o.order_date <= ?"
		args = append(args, *f.OrderDateLte)
	}
	if f.TotalAmountGte != nil {
		q += " AND o.total_amount >= ?"
		args = append(args, *f.TotalAmountGte)
	}
	if f.TotalAmountLte != nil {
		q += " AND o.total_amount <= ?"
		args = append(args, *f.TotalAmountLte)
	}
	if f.CustomerNameContains != "" {
		q += " AND c.name LIKE ?"
		args = append(args, "%"+f.CustomerNameContains+"%")
	}
	if f.CustomerEmailContains != "" {
		q += " AND c.email LIKE ?"
		args = append(args, "%"+f.CustomerEmailContains+"%")
	}
	if f.ProductNameContains != "" {
		q += " AND EXISTS (SELECT 1 FROM order_items i JOIN products p ON p.id = i.product_id WHERE i.order_id = o.id AND p.name LIKE ?)"
		args = append(args, "%"+f.ProductNameContains+"%")
	}
	if f.ProductID > 0 {
		q += " AND EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.product_id = ?)"
		args = append(args, f.ProductID)
	}
	return q, args
}

func (r *OrdersRepositoryImpl) ItemsByOrderID(ctx context.Context, orderID int64) ([]model.OrderItemDetail, error) {
	const q = `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price_at_purchase,
		       p.name AS product_name
		  FROM order_items i
		  JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = ?
		 ORDER BY i.id
	`
	var rows []model.OrderItemDetail
	if err := r.db.SelectContext(ctx, &rows, q, orderID); err != nil {
		return nil, err
	}
	return rows, nil
}
