package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jmehdipour/crmbeat/internal/kafka"
	"github.com/jmehdipour/crmbeat/internal/metrics"
	"github.com/jmehdipour/crmbeat/internal/model"
	"github.com/jmehdipour/crmbeat/internal/repository"
)

// EventSource is the Kafka surface the archiver consumes.
type EventSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// Archiver:
// - fetches purge events from the Kafka topic fed by the outbox,
// - batches them into the ClickHouse archive,
// - commits offsets only after a successful flush (at-least-once;
//   the ReplacingMergeTree key dedups redelivery).
type Archiver struct {
	// Dependencies
	Source  EventSource
	Archive repository.PurgeArchiveRepository

	// Behavior
	BatchSize int
	BatchWait time.Duration
}

// NewArchiver builds an archiver with sane defaults.
func NewArchiver(source EventSource, archive repository.PurgeArchiveRepository) *Archiver {
	return &Archiver{
		Source:    source,
		Archive:   archive,
		BatchSize: 200,
		BatchWait: 2 * time.Second,
	}
}

// Run consumes purge events until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) error {
	if a.BatchSize <= 0 {
		a.BatchSize = 200
	}
	if a.BatchWait <= 0 {
		a.BatchWait = 2 * time.Second
	}

	msgCh := make(chan kafka.Message, a.BatchSize*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				m, err := a.Source.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[archiver] kafka fetch err: %v", err)
					time.Sleep(200 * time.Millisecond)
					continue
				}
				msgCh <- m
			}
		}
	}()

	tick := time.NewTicker(a.BatchWait)
	defer tick.Stop()

	var (
		rows []model.PurgedCustomer
		msgs []kafka.Message
	)

	flush := func(fctx context.Context) {
		if len(msgs) == 0 {
			return
		}

		if len(rows) > 0 {
			if err := a.Archive.InsertBatch(fctx, rows); err != nil {
				// Keep the buffer; next tick retries the same batch.
				log.Printf("[archiver] clickhouse insert err: %v", err)
				return
			}
			metrics.PurgesArchived.Add(float64(len(rows)))
		}

		// Offsets move only after the rows are archived.
		if err := a.Source.Commit(fctx, msgs...); err != nil {
			log.Printf("[archiver] commit err: %v", err)
		}

		log.Printf("[archiver] flushed: rows=%d msgs=%d", len(rows), len(msgs))
		rows = rows[:0]
		msgs = msgs[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// Final flush on a fresh context, the run context is gone.
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(fctx)
			cancel()
			return nil

		case m, ok := <-msgCh:
			if !ok {
				fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				flush(fctx)
				cancel()
				return nil
			}

			var ev model.PurgeEvent
			if err := json.Unmarshal(m.Value, &ev); err != nil || ev.CustomerID == 0 {
				// Poison message: commit with the batch, archive nothing.
				if err != nil {
					log.Printf("[archiver] bad purge event json: %v", err)
				} else {
					log.Printf("[archiver] purge event missing customer_id")
				}
				msgs = append(msgs, m)
			} else {
				rows = append(rows, model.PurgedCustomer{
					BatchID:       ev.BatchID,
					CustomerID:    ev.CustomerID,
					Name:          ev.Name,
					Email:         ev.Email,
					LastOrderDate: ev.LastOrderDate,
					OrderCount:    ev.OrderCount,
					PurgedAt:      ev.PurgedAt,
				})
				msgs = append(msgs, m)
			}

			if len(msgs) >= a.BatchSize {
				flush(ctx)
			}

		case <-tick.C:
			flush(ctx)
		}
	}
}
