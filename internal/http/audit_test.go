package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jmehdipour/crmbeat/internal/model"
	"github.com/jmehdipour/crmbeat/internal/repository"
)

type fakePurgeArchive struct {
	ListFn func(ctx context.Context, q repository.PurgeQuery) ([]model.PurgedCustomer, error)
}

func (f *fakePurgeArchive) InsertBatch(context.Context, []model.PurgedCustomer) error { return nil }

func (f *fakePurgeArchive) List(ctx context.Context, q repository.PurgeQuery) ([]model.PurgedCustomer, error) {
	return f.ListFn(ctx, q)
}

func serveAudit(t *testing.T, archive repository.PurgeArchiveRepository, target string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := listPurgesHandler(archive)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func TestListPurgesMapsQueryParams(t *testing.T) {
	var got repository.PurgeQuery
	archive := &fakePurgeArchive{ListFn: func(_ context.Context, q repository.PurgeQuery) ([]model.PurgedCustomer, error) {
		got = q
		return nil, nil
	}}

	rec := serveAudit(t, archive,
		"/v1/audit/purges?batch_id=01B&email=alice%40example.com&since=2025-01-01T00:00:00Z&limit=10&offset=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	if got.BatchID != "01B" || got.Email != "alice@example.com" {
		t.Fatalf("filters mapped wrong: %+v", got)
	}
	if got.Limit != 10 || got.Offset != 5 {
		t.Fatalf("paging mapped wrong: %+v", got)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got.Since == nil || !got.Since.Equal(want) {
		t.Fatalf("since mapped wrong: %v", got.Since)
	}
}

func TestListPurgesBadSince(t *testing.T) {
	archive := &fakePurgeArchive{ListFn: func(context.Context, repository.PurgeQuery) ([]model.PurgedCustomer, error) {
		t.Fatalf("archive must not be queried on bad input")
		return nil, nil
	}}

	rec := serveAudit(t, archive, "/v1/audit/purges?since=last-tuesday")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "RFC3339") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestListPurgesResponseShape(t *testing.T) {
	purgedAt := time.Date(2025, 2, 5, 8, 0, 0, 0, time.UTC)
	archive := &fakePurgeArchive{ListFn: func(context.Context, repository.PurgeQuery) ([]model.PurgedCustomer, error) {
		return []model.PurgedCustomer{
			{BatchID: "01B", CustomerID: 11, Name: "Alice Johnson", Email: "alice@example.com", PurgedAt: purgedAt},
			{BatchID: "01B", CustomerID: 12, Name: "Bob Smith", Email: "bob@example.com", PurgedAt: purgedAt},
		}, nil
	}}

	rec := serveAudit(t, archive, "/v1/audit/purges")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Limit   int                    `json:"limit"`
		Offset  int                    `json:"offset"`
		Count   int                    `json:"count"`
		Results []model.PurgedCustomer `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Limit != 50 || body.Offset != 0 {
		t.Fatalf("default paging wrong: %+v", body)
	}
	if body.Count != 2 || len(body.Results) != 2 {
		t.Fatalf("count wrong: %+v", body)
	}
	if body.Results[0].CustomerID != 11 || body.Results[1].Email != "bob@example.com" {
		t.Fatalf("rows mapped wrong: %+v", body.Results)
	}
}

func TestListPurgesQueryError(t *testing.T) {
	archive := &fakePurgeArchive{ListFn: func(context.Context, repository.PurgeQuery) ([]model.PurgedCustomer, error) {
		return nil, errors.New("clickhouse unavailable")
	}}

	rec := serveAudit(t, archive, "/v1/audit/purges")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
