package worker

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmehdipour/crmbeat/internal/joblog"
	"github.com/jmehdipour/crmbeat/internal/metrics"
	"github.com/jmehdipour/crmbeat/internal/model"
)

// TaskQueue is the broker surface the report worker consumes.
type TaskQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*model.Task, error)
	EnqueueAfter(ctx context.Context, t model.Task, eta time.Time) error
	PromoteDue(ctx context.Context, now time.Time) (int64, error)
	StoreResult(ctx context.Context, res model.TaskResult) error
}

// GraphQLClient is the slice of internal/gqlclient the worker uses.
type GraphQLClient interface {
	Do(ctx context.Context, query string, vars map[string]any, out any) error
}

const reportQuery = `
query GetCRMReport {
    allCustomers {
        totalCount
    }
    allOrders {
        totalCount
        edges {
            node {
                totalAmount
                status
                orderDate
            }
        }
    }
    allProducts {
        totalCount
        edges {
            node {
                name
                stock
                price
            }
        }
    }
}`

type reportData struct {
	AllCustomers struct {
		TotalCount int64 `json:"totalCount"`
	} `json:"allCustomers"`
	AllOrders struct {
		TotalCount int64 `json:"totalCount"`
		Edges      []struct {
			Node struct {
				TotalAmount string `json:"totalAmount"`
				Status      string `json:"status"`
				OrderDate   string `json:"orderDate"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"allOrders"`
	AllProducts struct {
		TotalCount int64 `json:"totalCount"`
		Edges      []struct {
			Node struct {
				Name  string `json:"name"`
				Stock int    `json:"stock"`
				Price string `json:"price"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"allProducts"`
}

// Reports:
// - pops report tasks off the redis queue,
// - pulls CRM statistics over GraphQL,
// - writes the banner report plus a concise line, stores the result,
// - requeues failed tasks with a delay until MaxRetries.
type Reports struct {
	// Dependencies
	Queue   TaskQueue
	GQL     GraphQLClient
	Log     *joblog.Writer
	Concise *joblog.Writer

	// Behavior
	PollTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	RecentDays  int
}

// NewReports builds a report worker with sane defaults.
func NewReports(queue TaskQueue, gql GraphQLClient, reportLog, conciseLog *joblog.Writer) *Reports {
	return &Reports{
		Queue:       queue,
		GQL:         gql,
		Log:         reportLog,
		Concise:     conciseLog,
		PollTimeout: 5 * time.Second,
		MaxRetries:  3,
		RetryDelay:  time.Minute,
		RecentDays:  7,
	}
}

// Run consumes tasks until ctx is cancelled.
func (w *Reports) Run(ctx context.Context) error {
	if w.PollTimeout <= 0 {
		w.PollTimeout = 5 * time.Second
	}
	if w.MaxRetries <= 0 {
		w.MaxRetries = 3
	}
	if w.RetryDelay <= 0 {
		w.RetryDelay = time.Minute
	}
	if w.RecentDays <= 0 {
		w.RecentDays = 7
	}

	// Move due retries back onto the queue
	go w.runPromoter(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		t, err := w.Queue.Dequeue(ctx, w.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[reports] dequeue err: %v", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}
		if t == nil {
			continue
		}

		w.process(ctx, *t)
	}
}

func (w *Reports) runPromoter(ctx context.Context) {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if _, err := w.Queue.PromoteDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
				log.Printf("[reports] promote due err: %v", err)
			}
		}
	}
}

func (w *Reports) process(ctx context.Context, t model.Task) {
	switch t.Name {
	case model.TaskGenerateReport:
		w.processReport(ctx, t)
	default:
		log.Printf("[reports] unknown task %q id=%s", t.Name, t.ID)
		metrics.TasksTotal.WithLabelValues(t.Name, "failed").Inc()
		w.storeResult(ctx, model.TaskResult{
			TaskID:     t.ID,
			Task:       t.Name,
			Status:     model.TaskStatusFailed,
			Error:      fmt.Sprintf("unknown task %q", t.Name),
			FinishedAt: time.Now().UTC(),
		})
	}
}

func (w *Reports) processReport(ctx context.Context, t model.Task) {
	rt := t.Args.ReportType
	if !rt.Valid() {
		rt = model.ReportWeekly
	}

	stats, err := w.generate(ctx, rt)
	if err == nil {
		metrics.TasksTotal.WithLabelValues(t.Name, "succeeded").Inc()
		w.storeResult(ctx, model.TaskResult{
			TaskID:     t.ID,
			Task:       t.Name,
			Status:     model.TaskStatusSucceeded,
			ReportType: rt,
			Customers:  stats.Customers,
			Orders:     stats.Orders,
			Revenue:    stats.Revenue,
			FinishedAt: time.Now().UTC(),
		})
		return
	}

	log.Printf("[reports] task %s attempt %d err: %v", t.ID, t.Retries+1, err)

	if t.Retries < w.MaxRetries {
		t.Retries++
		if qerr := w.Queue.EnqueueAfter(ctx, t, time.Now().Add(w.RetryDelay)); qerr != nil {
			log.Printf("[reports] requeue %s err: %v", t.ID, qerr)
		} else {
			metrics.TasksTotal.WithLabelValues(t.Name, "retried").Inc()
			return
		}
	}

	metrics.TasksTotal.WithLabelValues(t.Name, "failed").Inc()
	w.storeResult(ctx, model.TaskResult{
		TaskID:     t.ID,
		Task:       t.Name,
		Status:     model.TaskStatusFailed,
		ReportType: rt,
		Error:      err.Error(),
		FinishedAt: time.Now().UTC(),
	})
}

func (w *Reports) storeResult(ctx context.Context, res model.TaskResult) {
	if err := w.Queue.StoreResult(ctx, res); err != nil {
		log.Printf("[reports] store result %s err: %v", res.TaskID, err)
	}
}

type reportStats struct {
	Type      model.ReportType
	Customers int64
	Orders    int64
	Revenue   decimal.Decimal
}

// generate runs the statistics query and writes both report logs. Errors
// land in the report log before they bubble up for the retry decision.
func (w *Reports) generate(ctx context.Context, rt model.ReportType) (reportStats, error) {
	ts := time.Now().Format("2006-01-02 15:04:05")

	var data reportData
	if err := w.GQL.Do(ctx, reportQuery, nil, &data); err != nil {
		w.logError(ts, err)
		return reportStats{}, err
	}

	lines, stats, err := buildReport(rt, ts, w.RecentDays, data)
	if err != nil {
		w.logError(ts, err)
		return reportStats{}, err
	}

	if err := w.Log.Append(lines...); err != nil {
		return reportStats{}, err
	}
	if err := w.Concise.Appendf("%s - %s Report: %d customers, %d orders, $%s revenue",
		ts, capitalize(string(rt)), stats.Customers, stats.Orders, formatAmount(stats.Revenue)); err != nil {
		return reportStats{}, err
	}
	return stats, nil
}

func (w *Reports) logError(ts string, err error) {
	if werr := w.Log.Appendf("%s - Error generating CRM report: %v", ts, err); werr != nil {
		log.Printf("[reports] report log write err: %v", werr)
	}
}

// buildReport turns query results into the banner report. Malformed
// amounts are errors so a bad payload retries instead of producing a
// silently wrong report.
func buildReport(rt model.ReportType, ts string, recentDays int, data reportData) ([]string, reportStats, error) {
	totalCustomers := data.AllCustomers.TotalCount
	totalOrders := data.AllOrders.TotalCount

	totalRevenue := decimal.Zero
	statusCounts := make(map[string]int)
	var statusOrder []string
	dailyOrders := make(map[string]int)

	for _, e := range data.AllOrders.Edges {
		o := e.Node

		amount, err := decimal.NewFromString(o.TotalAmount)
		if err != nil {
			return nil, reportStats{}, fmt.Errorf("order totalAmount %q: %w", o.TotalAmount, err)
		}
		totalRevenue = totalRevenue.Add(amount)

		if _, seen := statusCounts[o.Status]; !seen {
			statusOrder = append(statusOrder, o.Status)
		}
		statusCounts[o.Status]++

		day := "unknown"
		if len(o.OrderDate) >= 10 {
			day = o.OrderDate[:10]
		}
		dailyOrders[day]++
	}

	lowStock := 0
	inventoryValue := decimal.Zero
	var totalUnits int64

	for _, e := range data.AllProducts.Edges {
		p := e.Node

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, reportStats{}, fmt.Errorf("product price %q: %w", p.Price, err)
		}
		if p.Stock < 10 {
			lowStock++
		}
		inventoryValue = inventoryValue.Add(price.Mul(decimal.NewFromInt(int64(p.Stock))))
		totalUnits += int64(p.Stock)
	}

	avgPrice := decimal.Zero
	if totalUnits > 0 {
		avgPrice = inventoryValue.Div(decimal.NewFromInt(totalUnits))
	}

	lines := []string{
		"",
		joblog.Banner(60),
		fmt.Sprintf("CRM %s Report - Generated: %s", capitalize(string(rt)), ts),
		joblog.Banner(60),
		"📊 SUMMARY",
		fmt.Sprintf("  • Total Customers: %d", totalCustomers),
		fmt.Sprintf("  • Total Orders: %d", totalOrders),
		fmt.Sprintf("  • Total Revenue: $%s", formatAmount(totalRevenue)),
		fmt.Sprintf("  • Total Product Inventory Value: $%s", formatAmount(inventoryValue)),
		"",
		"📈 ORDER ANALYSIS",
		"  • Order Status Distribution:",
	}

	for _, status := range statusOrder {
		count := statusCounts[status]
		pct := 0.0
		if totalOrders > 0 {
			pct = float64(count) / float64(totalOrders) * 100
		}
		lines = append(lines, fmt.Sprintf("    - %s: %d (%.1f%%)", capitalize(status), count, pct))
	}

	lines = append(lines,
		"",
		"📦 PRODUCT ANALYSIS",
		fmt.Sprintf("  • Total Products: %d", len(data.AllProducts.Edges)),
		fmt.Sprintf("  • Low Stock Products (< 10): %d", lowStock),
		fmt.Sprintf("  • Average Product Price: $%s", formatAmount(avgPrice)),
	)

	if len(dailyOrders) > 0 {
		days := make([]string, 0, len(dailyOrders))
		for d := range dailyOrders {
			days = append(days, d)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(days)))
		if len(days) > recentDays {
			days = days[:recentDays]
		}

		lines = append(lines, "", fmt.Sprintf("📅 RECENT DAILY ORDERS (Last %d Days)", recentDays))
		for _, d := range days {
			lines = append(lines, fmt.Sprintf("  • %s: %d orders", d, dailyOrders[d]))
		}
	}

	lines = append(lines, joblog.Banner(60))

	stats := reportStats{Type: rt, Customers: totalCustomers, Orders: totalOrders, Revenue: totalRevenue}
	return lines, stats, nil
}

// capitalize matches the report's status casing: "PENDING" -> "Pending".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// formatAmount renders a money amount with thousands separators,
// e.g. 1234567.5 -> "1,234,567.50".
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	if len(intPart) > 3 {
		var b strings.Builder
		pre := len(intPart) % 3
		if pre > 0 {
			b.WriteString(intPart[:pre])
		}
		for i := pre; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	if neg {
		return "-" + intPart + frac
	}
	return intPart + frac
}
