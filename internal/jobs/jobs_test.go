package jobs

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jmehdipour/crmbeat/internal/joblog"
)

// ---- shared test helpers ----

func newTestLog(t *testing.T) *joblog.Writer {
	t.Helper()
	return joblog.New(t.TempDir(), "job.log")
}

func readLog(t *testing.T, w *joblog.Writer) string {
	t.Helper()

	b, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(b)
}

func logLines(t *testing.T, w *joblog.Writer) []string {
	t.Helper()
	return strings.Split(strings.TrimRight(readLog(t, w), "\n"), "\n")
}

type fakeGQL struct {
	DoFn func(ctx context.Context, query string, vars map[string]any, out any) error
}

func (f *fakeGQL) Do(ctx context.Context, query string, vars map[string]any, out any) error {
	return f.DoFn(ctx, query, vars, out)
}

type stubJob struct {
	name string
	err  error
	runs int
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { s.runs++; return s.err }

// ---- registry ----

func TestRegistryGetAndNames(t *testing.T) {
	a := &stubJob{name: "cleanup_inactive"}
	b := &stubJob{name: "heartbeat"}
	reg := NewRegistry(b, a)

	j, ok := reg.Get("heartbeat")
	if !ok || j != Job(b) {
		t.Fatalf("Get(heartbeat) = %v %v", j, ok)
	}
	if _, ok := reg.Get("nope"); ok {
		t.Fatalf("unknown name should not resolve")
	}

	want := []string{"cleanup_inactive", "heartbeat"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

// ---- Run ----

func TestRunReturnsJobError(t *testing.T) {
	sentinel := errors.New("boom")
	j := &stubJob{name: "heartbeat", err: sentinel}

	if err := Run(context.Background(), zap.NewNop(), j); !errors.Is(err, sentinel) {
		t.Fatalf("expected job error back, got %v", err)
	}
	if j.runs != 1 {
		t.Fatalf("job ran %d times", j.runs)
	}

	j.err = nil
	if err := Run(context.Background(), zap.NewNop(), j); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
