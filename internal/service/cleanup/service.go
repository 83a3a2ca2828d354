package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/crmbeat/internal/model"
	"github.com/jmehdipour/crmbeat/internal/repository"
)

// Service deletes inactive customers and records purge events, all inside
// a single transaction: either the customers are gone and the outbox rows
// exist, or nothing happened.
type Service struct {
	db        *sqlx.DB
	customers repository.CustomersRepository
	outbox    repository.PurgeOutboxRepository
	topic     string
}

// New constructs the cleanup service.
func New(
	db *sqlx.DB,
	customersRepo repository.CustomersRepository,
	outboxRepo repository.PurgeOutboxRepository,
	topic string,
) *Service {
	return &Service{
		db:        db,
		customers: customersRepo,
		outbox:    outboxRepo,
		topic:     topic,
	}
}

// Result describes one cleanup run.
type Result struct {
	BatchID   string
	Cutoff    time.Time
	Deleted   int64
	Customers []model.InactiveCustomer
}

// Run selects customers whose latest order predates cutoff (or who never
// ordered), deletes them, and writes one purge event per row into
// purge_outbox. Deleted is taken from the DELETE's rows affected.
func (s *Service) Run(ctx context.Context, cutoff time.Time) (*Result, error) {
	batchID := model.NewBatchID()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	inactive, err := s.customers.SelectInactive(ctx, tx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select inactive: %w", err)
	}

	res := &Result{BatchID: batchID, Cutoff: cutoff, Customers: inactive}
	if len(inactive) == 0 {
		return res, nil
	}

	ids := make([]int64, len(inactive))
	for i, c := range inactive {
		ids[i] = c.ID
	}

	deleted, err := s.customers.DeleteByIDs(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("delete customers: %w", err)
	}
	res.Deleted = deleted

	purgedAt := time.Now().UTC()
	events := make([]model.PurgeEvent, len(inactive))
	for i, c := range inactive {
		events[i] = model.PurgeEvent{
			BatchID:       batchID,
			CustomerID:    c.ID,
			Name:          c.Name,
			Email:         c.Email,
			LastOrderDate: c.LastOrderDate,
			OrderCount:    c.OrderCount,
			PurgedAt:      purgedAt,
		}
	}

	if err := s.outbox.InsertBatch(ctx, tx, s.topic, events); err != nil {
		return nil, fmt.Errorf("insert purge outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}
