package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Task names understood by the report worker.
const TaskGenerateReport = "crm.report.generate"

type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
)

func (t ReportType) String() string { return string(t) }

func (t ReportType) Valid() bool {
	return t == ReportDaily || t == ReportWeekly || t == ReportMonthly
}

// ParseReportType normalizes input; empty => weekly.
// Returns (value, true) if valid; otherwise (weekly, false).
func ParseReportType(s string) (ReportType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "weekly":
		return ReportWeekly, true
	case "daily":
		return ReportDaily, true
	case "monthly":
		return ReportMonthly, true
	default:
		return ReportWeekly, false
	}
}

// Task is the payload pushed onto the redis queue by beat and consumed
// by the report worker.
type Task struct {
	ID         string    `json:"id"` // uuid
	Name       string    `json:"task"`
	Args       TaskArgs  `json:"args"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Retries    int       `json:"retries"`
}

type TaskArgs struct {
	ReportType ReportType `json:"report_type,omitempty"`
}

// NewReportTask builds a generate-report task with a fresh id.
func NewReportTask(rt ReportType, now time.Time) Task {
	return Task{
		ID:         uuid.NewString(),
		Name:       TaskGenerateReport,
		Args:       TaskArgs{ReportType: rt},
		EnqueuedAt: now.UTC(),
	}
}

const (
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
)

// TaskResult is stored in redis under the result prefix, keyed by task id.
type TaskResult struct {
	TaskID     string          `json:"task_id"`
	Task       string          `json:"task"`
	Status     string          `json:"status"` // succeeded|failed
	ReportType ReportType      `json:"report_type,omitempty"`
	Customers  int64           `json:"customers,omitempty"`
	Orders     int64           `json:"orders,omitempty"`
	Revenue    decimal.Decimal `json:"revenue,omitempty"`
	Error      string          `json:"error,omitempty"`
	FinishedAt time.Time       `json:"finished_at"`
}
