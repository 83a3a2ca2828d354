package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// CustomersRepository defines persistence for the customers table.
type CustomersRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, c model.Customer) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	EmailExists(ctx context.Context, tx *sqlx.Tx, email string) (bool, error)
	List(ctx context.Context, f CustomerFilter) ([]model.Customer, error)
	Count(ctx context.Context, f CustomerFilter) (int64, error)

	// SelectInactive returns customers with no orders at all, or whose most
	// recent order is older than cutoff. Runs inside the cleanup transaction.
	SelectInactive(ctx context.Context, tx *sqlx.Tx, cutoff time.Time) ([]model.InactiveCustomer, error)
	// DeleteByIDs removes the given customers and reports rows affected.
	// Orders and items go with them via ON DELETE CASCADE.
	DeleteByIDs(ctx context.Context, tx *sqlx.Tx, ids []int64) (int64, error)
}

type CustomerFilter struct {
	NameContains  string
	EmailContains string
	PhonePrefix   string
	CreatedAtGte  *time.Time
	CreatedAtLte  *time.Time
	OrderBy       string
	Limit         int
	Offset        int
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(db *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

var customerOrderColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"createdAt":  "created_at",
	"created_at": "created_at",
}

func (r *CustomersRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, c model.Customer) (int64, error) {
	const q = `
		INSERT INTO customers (name, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
	`
	var id int64
	err := withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, c.Name, c.Email, c.Phone)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (r *CustomersRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, email, phone, created_at, updated_at
		  FROM customers
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomersRepositoryImpl) EmailExists(ctx context.Context, tx *sqlx.Tx, email string) (bool, error) {
	const q = `SELECT COUNT(*) FROM customers WHERE email = ?`
	var n int64
	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &n, q, email)
	} else {
		err = r.db.GetContext(ctx, &n, q, email)
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CustomersRepositoryImpl) List(ctx context.Context, f CustomerFilter) ([]model.Customer, error) {
	q := `
		SELECT id, name, email, phone, created_at, updated_at
		FROM customers
		WHERE 1=1
	`
	where, args := buildCustomerWhere(f)
	q += where
	q += " ORDER BY " + orderClause(f.OrderBy, customerOrderColumns, "id")
	q, args = pageArgs(q, args, f.Limit, f.Offset)

	var rows []model.Customer
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CustomersRepositoryImpl) Count(ctx context.Context, f CustomerFilter) (int64, error) {
	q := `SELECT COUNT(*) FROM customers WHERE 1=1`
	where, args := buildCustomerWhere(f)
	q += where

	var n int64
	if err := r.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, err
	}
	return n, nil
}

func buildCustomerWhere(f CustomerFilter) (string, []any) {
	var q string
	var args []any
	if f.NameContains != "" {
		q += " AND name LIKE ?"
		args = append(args, "%"+f.NameContains+"%")
	}
	if f.EmailContains != "" {
		q += " AND email LIKE ?"
		args = append(args, "%"+f.EmailContains+"%")
	}
	if f.PhonePrefix != "" {
		q += " AND phone LIKE ?"
		args = append(args, f.PhonePrefix+"%")
	}
	if f.CreatedAtGte != nil {
		q += " AND created_at >= ?"
		args = append(args, *f.CreatedAtGte)
	}
	if f.CreatedAtLte != nil {
		q += " AND created_at <= ?"
		args = append(args, *f.CreatedAtLte)
	}
	return q, args
}

func (r *CustomersRepositoryImpl) SelectInactive(ctx context.Context, tx *sqlx.Tx, cutoff time.Time) ([]model.InactiveCustomer, error) {
	const q = `
		SELECT c.id, c.name, c.email,
		       MAX(o.order_date) AS last_order_date,
		       COUNT(o.id)       AS order_count
		  FROM customers c
		  LEFT JOIN orders o ON o.customer_id = c.id
		 GROUP BY c.id, c.name, c.email
		HAVING last_order_date IS NULL OR last_order_date < ?
		 ORDER BY c.id
	`
	var rows []model.InactiveCustomer
	if err := tx.SelectContext(ctx, &rows, q, cutoff); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CustomersRepositoryImpl) DeleteByIDs(ctx context.Context, tx *sqlx.Tx, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM customers WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	query = r.db.Rebind(query)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
