package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// ProductsRepository defines persistence for the products table.
type ProductsRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, p model.Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, error)
	Count(ctx context.Context, f ProductFilter) (int64, error)

	// ListByIDsForUpdate locks the product rows an order is about to touch.
	ListByIDsForUpdate(ctx context.Context, tx *sqlx.Tx, ids []int64) ([]model.Product, error)
	// SelectLowStockForUpdate locks products with stock below threshold.
	SelectLowStockForUpdate(ctx context.Context, tx *sqlx.Tx, threshold int) ([]model.Product, error)
	IncrementStock(ctx context.Context, tx *sqlx.Tx, ids []int64, by int) error
	// DecrementStockOne subtracts one unit for a single order line.
	DecrementStockOne(ctx context.Context, tx *sqlx.Tx, id int64) error
}

type ProductFilter struct {
	NameContains string
	PriceGte     *decimal.Decimal
	PriceLte     *decimal.Decimal
	StockGte     *int
	StockLte     *int
	LowStock     bool // stock < 10
	OrderBy      string
	Limit        int
	Offset       int
}

type ProductsRepositoryImpl struct {
	db *sqlx.DB
}

func NewProductsRepository(db *sqlx.DB) *ProductsRepositoryImpl {
	return &ProductsRepositoryImpl{db: db}
}

var _ ProductsRepository = (*ProductsRepositoryImpl)(nil)

var productOrderColumns = map[string]string{
	"id":    "id",
	"name":  "name",
	"price": "price",
	"stock": "stock",
}

func (r *ProductsRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, p model.Product) (int64, error) {
	const q = `
		INSERT INTO products (name, description, price, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, NOW(), NOW())
	`
	var id int64
	err := withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, p.Name, p.Description, p.Price, p.Stock)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (r *ProductsRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, `
		SELECT id, name, description, price, stock, created_at, updated_at
		  FROM products
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductsRepositoryImpl) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := `
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE 1=1
	`
	where, args := buildProductWhere(f)
	q += where
	q += " ORDER BY " + orderClause(f.OrderBy, productOrderColumns, "id")
	q, args = pageArgs(q, args, f.Limit, f.Offset)

	var rows []model.Product
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProductsRepositoryImpl) Count(ctx context.Context, f ProductFilter) (int64, error) {
	q := `SELECT COUNT(*) FROM products WHERE 1=1`
	where, args := buildProductWhere(f)
	q += where

	var n int64
	if err := r.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, err
	}
	return n, nil
}

func buildProductWhere(f ProductFilter) (string, []any) {
	var q string
	var args []any
	if f.NameContains != "" {
		q += " AND name LIKE ?"
		args = append(args, "%"+f.NameContains+"%")
	}
	if f.PriceGte != nil {
		q += " AND price >= ?"
		args = append(args, *f.PriceGte)
	}
	if f.PriceLte != nil {
		q += " AND price <= ?"
		args = append(args, *f.PriceLte)
	}
	if f.StockGte != nil {
		q += " AND stock >= ?"
		args = append(args, *f.StockGte)
	}
	if f.StockLte != nil {
		q += " AND stock <= ?"
		args = append(args, *f.StockLte)
	}
	if f.LowStock {
		q += " AND stock < 10"
	}
	return q, args
}

func (r *ProductsRepositoryImpl) ListByIDsForUpdate(ctx context.Context, tx *sqlx.Tx, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, name, description, price, stock, created_at, updated_at
		  FROM products
		 WHERE id IN (?)
		 FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var rows []model.Product
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProductsRepositoryImpl) SelectLowStockForUpdate(ctx context.Context, tx *sqlx.Tx, threshold int) ([]model.Product, error) {
	const q = `
		SELECT id, name, description, price, stock, created_at, updated_at
		  FROM products
		 WHERE stock < ?
		 ORDER BY id
		 FOR UPDATE
	`
	var rows []model.Product
	if err := tx.SelectContext(ctx, &rows, q, threshold); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProductsRepositoryImpl) IncrementStock(ctx context.Context, tx *sqlx.Tx, ids []int64, by int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE products SET stock = stock + ?, updated_at = NOW() WHERE id IN (?)`, by, ids)
	if err != nil {
		return err
	}
	query = r.db.Rebind(query)

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (r *ProductsRepositoryImpl) DecrementStockOne(ctx context.Context, tx *sqlx.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - 1, updated_at = NOW() WHERE id = ?`, id)
	return err
}
