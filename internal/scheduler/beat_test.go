package scheduler

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/jobs"
)

type stubJob struct{ name string }

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegisterUnknownJob(t *testing.T) {
	b := New(zap.NewNop(), 0)

	err := b.Register([]config.BeatEntry{
		{Name: "nope", Schedule: "@hourly"},
	}, jobs.NewRegistry())
	if err == nil || !strings.Contains(err.Error(), `unknown job "nope"`) {
		t.Fatalf("expected unknown job error, got %v", err)
	}
}

func TestRegisterBadSchedule(t *testing.T) {
	b := New(zap.NewNop(), 0)
	reg := jobs.NewRegistry(&stubJob{name: "heartbeat"})

	err := b.Register([]config.BeatEntry{
		{Name: "heartbeat", Schedule: "every now and then"},
	}, reg)
	if err == nil || !strings.Contains(err.Error(), `schedule "every now and then"`) {
		t.Fatalf("expected schedule error, got %v", err)
	}
}

func TestRegisterSkipsDisabledEntries(t *testing.T) {
	b := New(zap.NewNop(), 0)

	// a disabled entry does not need a registered job
	err := b.Register([]config.BeatEntry{
		{Name: "monthly_report", Schedule: "0 6 1 * *", Disabled: true},
	}, jobs.NewRegistry())
	if err != nil {
		t.Fatalf("disabled entry should be skipped, got %v", err)
	}
}

func TestRegisterValidEntries(t *testing.T) {
	b := New(zap.NewNop(), 0)
	reg := jobs.NewRegistry(&stubJob{name: "heartbeat"}, &stubJob{name: "cleanup_inactive"})

	err := b.Register([]config.BeatEntry{
		{Name: "heartbeat", Schedule: "*/5 * * * *"},
		{Name: "cleanup_inactive", Schedule: "0 2 * * 0"},
	}, reg)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
}
