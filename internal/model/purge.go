package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewBatchID returns a ULID identifying one cleanup run. ULIDs sort by
// time, which keeps the archive readable when listing by batch.
func NewBatchID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// PurgeEvent is the outbox payload published to Kafka (via Debezium outbox
// SMT) for every customer deleted by the cleanup job.
type PurgeEvent struct {
	BatchID       string     `json:"batch_id"`
	CustomerID    int64      `json:"customer_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`
	OrderCount    int64      `json:"order_count"`
	PurgedAt      time.Time  `json:"purged_at"`
}

// PurgedCustomer is the ClickHouse archive row the audit endpoint reads.
type PurgedCustomer struct {
	BatchID       string     `db:"batch_id" json:"batch_id"`
	CustomerID    int64      `db:"customer_id" json:"customer_id"`
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	LastOrderDate *time.Time `db:"last_order_date" json:"last_order_date"`
	OrderCount    int64      `db:"order_count" json:"order_count"`
	PurgedAt      time.Time  `db:"purged_at" json:"purged_at"`
}
