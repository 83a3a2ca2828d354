package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// PurgeArchiveRepository reads and writes the ClickHouse purge archive.
type PurgeArchiveRepository interface {
	InsertBatch(ctx context.Context, rows []model.PurgedCustomer) error
	List(ctx context.Context, q PurgeQuery) ([]model.PurgedCustomer, error)
}

type PurgeQuery struct {
	BatchID string
	Email   string
	Since   *time.Time
	Limit   int
	Offset  int
}

type PurgeArchiveRepositoryImpl struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewPurgeArchiveRepository(ch *sqlx.DB) *PurgeArchiveRepositoryImpl {
	return &PurgeArchiveRepositoryImpl{ch: ch}
}

var _ PurgeArchiveRepository = (*PurgeArchiveRepositoryImpl)(nil)

// InsertBatch appends archive rows using the clickhouse-go batch protocol
// (prepared statement inside a transaction, one Exec per row).
func (r *PurgeArchiveRepositoryImpl) InsertBatch(ctx context.Context, rows []model.PurgedCustomer) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO crm.purged_customers
		    (batch_id, customer_id, name, email, last_order_date, order_count, purged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range rows {
		if _, err := stmt.ExecContext(ctx,
			p.BatchID, p.CustomerID, p.Name, p.Email, p.LastOrderDate, p.OrderCount, p.PurgedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PurgeArchiveRepositoryImpl) List(ctx context.Context, pq PurgeQuery) ([]model.PurgedCustomer, error) {
	limit, offset := clampPage(pq.Limit, pq.Offset)

	q := `
		SELECT batch_id, customer_id, name, email, last_order_date, order_count, purged_at
		FROM crm.purged_customers
		WHERE 1=1
	`
	args := []any{}

	if pq.BatchID != "" {
		q += " AND batch_id = ?"
		args = append(args, pq.BatchID)
	}
	if pq.Email != "" {
		q += " AND email = ?"
		args = append(args, pq.Email)
	}
	if pq.Since != nil {
		q += " AND purged_at >= ?"
		args = append(args, *pq.Since)
	}

	q += " ORDER BY purged_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.PurgedCustomer
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
