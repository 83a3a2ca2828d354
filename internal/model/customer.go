package model

import "time"

type Customer struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     *string   `db:"phone"` // nullable
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// InactiveCustomer is the cleanup selection row: a customer with either no
// orders at all or a latest order older than the cutoff.
type InactiveCustomer struct {
	ID            int64      `db:"id"`
	Name          string     `db:"name"`
	Email         string     `db:"email"`
	LastOrderDate *time.Time `db:"last_order_date"` // nil when the customer never ordered
	OrderCount    int64      `db:"order_count"`
}
