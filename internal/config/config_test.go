package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Addr != ":8000" {
		t.Fatalf("http addr = %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.APIKey != "" || cfg.HTTP.RateLimitRPS != 0 {
		t.Fatalf("ops guard must default off: %+v", cfg.HTTP)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if cfg.GraphQL.Endpoint != "http://127.0.0.1:8000/graphql" {
		t.Fatalf("graphql endpoint = %q", cfg.GraphQL.Endpoint)
	}
	if cfg.Broker.QueueKey != "crm:tasks" || cfg.Broker.ResultTTL != 24*time.Hour {
		t.Fatalf("broker defaults wrong: %+v", cfg.Broker)
	}
	if cfg.Cleanup.InactiveDays != 365 || cfg.Cleanup.OutboxTopic != "crm.customers.purged" {
		t.Fatalf("cleanup defaults wrong: %+v", cfg.Cleanup)
	}
	if cfg.Kafka.Topic != "crm.customers.purged" {
		t.Fatalf("kafka topic = %q", cfg.Kafka.Topic)
	}
	if cfg.Logs.Dir != "/tmp" || cfg.Logs.HeartbeatFile != "crm_heartbeat_log.txt" {
		t.Fatalf("log file defaults wrong: %+v", cfg.Logs)
	}
	if cfg.Logs.ReportConciseFile != "crm_report_concise_log.txt" {
		t.Fatalf("concise report file = %q", cfg.Logs.ReportConciseFile)
	}
	if cfg.Report.MaxRetries != 3 || cfg.Report.RetryDelay != 60*time.Second {
		t.Fatalf("report defaults wrong: %+v", cfg.Report)
	}
	if cfg.Beat.JobTimeout != 5*time.Minute {
		t.Fatalf("beat job timeout = %v", cfg.Beat.JobTimeout)
	}

	entries := make(map[string]BeatEntry, len(cfg.Beat.Entries))
	for _, e := range cfg.Beat.Entries {
		entries[e.Name] = e
	}
	for _, name := range []string{"heartbeat", "cleanup_inactive", "order_reminders", "low_stock_update", "weekly_report"} {
		e, ok := entries[name]
		if !ok {
			t.Fatalf("missing beat entry %q", name)
		}
		if e.Disabled {
			t.Fatalf("entry %q should be enabled by default", name)
		}
	}
	for _, name := range []string{"daily_report", "monthly_report"} {
		e, ok := entries[name]
		if !ok {
			t.Fatalf("missing beat entry %q", name)
		}
		if !e.Disabled {
			t.Fatalf("entry %q should be disabled by default", name)
		}
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
log:
  level: "debug"
cleanup:
  inactive_days: 90
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Fatalf("override lost: log level = %q", cfg.Log.Level)
	}
	if cfg.Cleanup.InactiveDays != 90 {
		t.Fatalf("override lost: inactive days = %d", cfg.Cleanup.InactiveDays)
	}
	// untouched keys keep their defaults
	if cfg.HTTP.Addr != ":8000" {
		t.Fatalf("default lost: http addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load("/does/not/exist.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8000" {
		t.Fatalf("defaults not applied: %+v", cfg.HTTP)
	}
}
