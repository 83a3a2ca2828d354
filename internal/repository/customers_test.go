package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSelectInactive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	cutoff := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	lastOrder := time.Date(2023, 11, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT c.id, c.name, c.email,
		       MAX(o.order_date) AS last_order_date,
		       COUNT(o.id)       AS order_count
		  FROM customers c
		  LEFT JOIN orders o ON o.customer_id = c.id
		 GROUP BY c.id, c.name, c.email
		HAVING last_order_date IS NULL OR last_order_date < ?
		 ORDER BY c.id
	`)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "last_order_date", "order_count"}).
			AddRow(1, "Alice Johnson", "alice@example.com", nil, 0).
			AddRow(2, "Bob Smith", "bob@example.com", lastOrder, 3))

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	rows, err := repo.SelectInactive(context.Background(), tx, cutoff)
	if err != nil {
		t.Fatalf("SelectInactive failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	// never ordered: NULL last order, zero count
	if rows[0].LastOrderDate != nil || rows[0].OrderCount != 0 {
		t.Fatalf("zero-order customer mapped wrong: %+v", rows[0])
	}
	// stale: latest order kept, count kept
	if rows[1].LastOrderDate == nil || !rows[1].LastOrderDate.Equal(lastOrder) {
		t.Fatalf("expected last order %v, got %v", lastOrder, rows[1].LastOrderDate)
	}
	if rows[1].OrderCount != 3 {
		t.Fatalf("expected order count 3, got %d", rows[1].OrderCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteByIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id IN (?, ?)`)).
		WithArgs(int64(7), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	n, err := repo.DeleteByIDs(context.Background(), tx, []int64{7, 9})
	if err != nil {
		t.Fatalf("DeleteByIDs failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows affected, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteByIDsEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	mock.ExpectBegin()
	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	n, err := repo.DeleteByIDs(context.Background(), tx, nil)
	if err != nil {
		t.Fatalf("DeleteByIDs failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows affected, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, name, email, phone, created_at, updated_at
		  FROM customers
		 WHERE id = ? LIMIT 1
	`)).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	c, err := repo.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("missing row should not error: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil customer, got %+v", c)
	}
}

func TestEmailExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM customers WHERE email = ?`)).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM customers WHERE email = ?`)).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := repo.EmailExists(context.Background(), nil, "alice@example.com")
	if err != nil || !ok {
		t.Fatalf("expected exists, got %v %v", ok, err)
	}

	ok, err = repo.EmailExists(context.Background(), nil, "nobody@example.com")
	if err != nil || ok {
		t.Fatalf("expected not exists, got %v %v", ok, err)
	}
}

func TestListCustomersUnpagedByDefault(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	now := time.Now()

	// no limit arg means no LIMIT clause, the connection fetches everything
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id ASC`)).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "created_at", "updated_at"}).
			AddRow(1, "Alice Johnson", "alice@example.com", "+1234567890", now, now).
			AddRow(2, "Bob Smith", "bob@example.com", nil, now, now))

	rows, err := repo.List(context.Background(), CustomerFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Phone == nil || *rows[0].Phone != "+1234567890" {
		t.Fatalf("phone mapped wrong: %v", rows[0].Phone)
	}
	if rows[1].Phone != nil {
		t.Fatalf("expected nil phone, got %v", *rows[1].Phone)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListCustomersFilteredAndPaged(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE 1=1 AND name LIKE ? ORDER BY name DESC LIMIT ? OFFSET ?`)).
		WithArgs("%ali%", 5, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "created_at", "updated_at"}).
			AddRow(1, "Alice Johnson", "alice@example.com", nil, now, now))

	rows, err := repo.List(context.Background(), CustomerFilter{
		NameContains: "ali",
		OrderBy:      "-name",
		Limit:        5,
		Offset:       10,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Alice Johnson" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountCustomers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomersRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM customers WHERE 1=1 AND email LIKE ?`)).
		WithArgs("%@example.com%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.Count(context.Background(), CustomerFilter{EmailContains: "@example.com"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4, got %d", n)
	}
}
