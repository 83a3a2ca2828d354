package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/crmbeat/internal/kafka"
	"github.com/jmehdipour/crmbeat/internal/model"
	"github.com/jmehdipour/crmbeat/internal/repository"
)

// ---- fakes ----

type fakeSource struct {
	ch       chan kafka.Message
	commitCh chan int

	mu        sync.Mutex
	committed []kafka.Message
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		ch:       make(chan kafka.Message, 16),
		commitCh: make(chan int, 8),
	}
}

func (f *fakeSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-f.ch:
		return m, nil
	}
}

func (f *fakeSource) Commit(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	f.committed = append(f.committed, msgs...)
	n := len(f.committed)
	f.mu.Unlock()
	f.commitCh <- n
	return nil
}

func (f *fakeSource) committedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

type fakeArchive struct {
	mu        sync.Mutex
	calls     int
	failFirst bool
	rows      []model.PurgedCustomer
}

func (f *fakeArchive) InsertBatch(_ context.Context, rows []model.PurgedCustomer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failFirst && f.calls == 1 {
		return errors.New("clickhouse unavailable")
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeArchive) List(context.Context, repository.PurgeQuery) ([]model.PurgedCustomer, error) {
	return nil, nil
}

func (f *fakeArchive) archived() []model.PurgedCustomer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PurgedCustomer(nil), f.rows...)
}

func purgeMsg(t *testing.T, customerID int64) kafka.Message {
	t.Helper()

	b, err := json.Marshal(model.PurgeEvent{
		BatchID:    "01B",
		CustomerID: customerID,
		Name:       "Alice Johnson",
		Email:      "alice@example.com",
		PurgedAt:   time.Date(2025, 2, 5, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return kafka.Message{Value: b}
}

func waitCommit(t *testing.T, src *fakeSource) int {
	t.Helper()

	select {
	case n := <-src.commitCh:
		return n
	case <-time.After(2 * time.Second):
		t.Fatalf("no commit within 2s")
		return 0
	}
}

// ---- tests ----

func TestArchiverFlushesFullBatch(t *testing.T) {
	src := newFakeSource()
	arch := &fakeArchive{}

	a := NewArchiver(src, arch)
	a.BatchSize = 3
	a.BatchWait = time.Hour // only the size trigger should fire

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	for i := int64(1); i <= 3; i++ {
		src.ch <- purgeMsg(t, i)
	}

	if n := waitCommit(t, src); n != 3 {
		t.Fatalf("expected 3 committed messages, got %d", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}

	rows := arch.archived()
	if len(rows) != 3 {
		t.Fatalf("expected 3 archived rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.CustomerID != int64(i+1) {
			t.Fatalf("row %d archived out of order: %+v", i, r)
		}
	}
}

func TestArchiverPoisonCommittedNotArchived(t *testing.T) {
	src := newFakeSource()
	arch := &fakeArchive{}

	a := NewArchiver(src, arch)
	a.BatchSize = 3
	a.BatchWait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	src.ch <- kafka.Message{Value: []byte("not json")}
	src.ch <- kafka.Message{Value: []byte(`{"batch_id":"01B"}`)} // missing customer_id
	src.ch <- purgeMsg(t, 9)

	if n := waitCommit(t, src); n != 3 {
		t.Fatalf("expected all 3 messages committed, got %d", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}

	rows := arch.archived()
	if len(rows) != 1 || rows[0].CustomerID != 9 {
		t.Fatalf("only the valid event should be archived, got %+v", rows)
	}
}

func TestArchiverRetriesFailedInsert(t *testing.T) {
	src := newFakeSource()
	arch := &fakeArchive{failFirst: true}

	a := NewArchiver(src, arch)
	a.BatchSize = 100
	a.BatchWait = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	src.ch <- purgeMsg(t, 1)
	src.ch <- purgeMsg(t, 2)

	// first tick fails the insert and keeps the batch, a later tick retries
	if n := waitCommit(t, src); n != 2 {
		t.Fatalf("expected 2 committed messages after retry, got %d", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if rows := arch.archived(); len(rows) != 2 {
		t.Fatalf("expected 2 archived rows, got %d", len(rows))
	}
	arch.mu.Lock()
	calls := arch.calls
	arch.mu.Unlock()
	if calls < 2 {
		t.Fatalf("expected at least 2 insert attempts, got %d", calls)
	}
}

func TestArchiverFinalFlushOnShutdown(t *testing.T) {
	src := newFakeSource()
	arch := &fakeArchive{}

	a := NewArchiver(src, arch)
	a.BatchSize = 100
	a.BatchWait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	src.ch <- purgeMsg(t, 1)
	src.ch <- purgeMsg(t, 2)

	// let the loop buffer both, then shut down
	time.Sleep(300 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if rows := arch.archived(); len(rows) != 2 {
		t.Fatalf("final flush should archive the buffer, got %d rows", len(rows))
	}
	if n := src.committedCount(); n != 2 {
		t.Fatalf("final flush should commit the buffer, got %d", n)
	}
}
