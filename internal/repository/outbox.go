package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// PurgeOutboxRepository defines persistence for the purge_outbox table.
type PurgeOutboxRepository interface {
	// InsertBatch writes one outbox row per purged customer. If tx is nil,
	// it will open/commit an internal transaction; otherwise it uses the
	// given tx, so the rows commit atomically with the deletion.
	InsertBatch(ctx context.Context, tx *sqlx.Tx, topic string, events []model.PurgeEvent) error
}

// PurgeOutboxRepositoryImpl is a sqlx-backed implementation.
type PurgeOutboxRepositoryImpl struct {
	db *sqlx.DB
}

func NewPurgeOutboxRepository(db *sqlx.DB) *PurgeOutboxRepositoryImpl {
	return &PurgeOutboxRepositoryImpl{db: db}
}

var _ PurgeOutboxRepository = (*PurgeOutboxRepositoryImpl)(nil)

// InsertBatch adds event rows to purge_outbox in a single statement.
// Debezium Outbox SMT will pick them up and publish to Kafka based on
// the `topic` column.
func (r *PurgeOutboxRepositoryImpl) InsertBatch(ctx context.Context, tx *sqlx.Tx, topic string, events []model.PurgeEvent) error {
	if len(events) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO purge_outbox (aggregate, aggregate_id, topic, payload, created_at) VALUES `)
	args := make([]any, 0, len(events)*4)
	for i, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, NOW())")
		args = append(args, "customer", strconv.FormatInt(e.CustomerID, 10), topic, payload)
	}

	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, sb.String(), args...)
		return err
	})
}
