package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/crmbeat/internal/joblog"
)

const lowStockMutation = `
mutation UpdateLowStock($incrementBy: Int) {
    updateLowStockProducts(incrementBy: $incrementBy) {
        updatedProducts {
            name
            stock
        }
        message
    }
}`

// LowStockUpdate restocks products under the low-stock threshold through
// the GraphQL mutation and logs each updated product.
type LowStockUpdate struct {
	Log         *joblog.Writer
	GQL         GraphQLClient
	IncrementBy int
}

func (l *LowStockUpdate) Name() string { return "low_stock_update" }

func (l *LowStockUpdate) Run(ctx context.Context) error {
	incrementBy := l.IncrementBy
	if incrementBy <= 0 {
		incrementBy = 10
	}

	var out struct {
		UpdateLowStockProducts struct {
			UpdatedProducts []struct {
				Name  string `json:"name"`
				Stock int    `json:"stock"`
			} `json:"updatedProducts"`
			Message string `json:"message"`
		} `json:"updateLowStockProducts"`
	}

	err := l.GQL.Do(ctx, lowStockMutation, map[string]any{
		"incrementBy": incrementBy,
	}, &out)

	ts := time.Now().Format(jobTimeLayout)
	if err != nil {
		werr := l.Log.Appendf("%s - Error updating low-stock products: %v", ts, err)
		if werr != nil {
			return fmt.Errorf("%v (log write: %v)", err, werr)
		}
		return err
	}

	payload := out.UpdateLowStockProducts
	lines := []string{fmt.Sprintf("%s - %s", ts, payload.Message)}
	for _, p := range payload.UpdatedProducts {
		lines = append(lines, fmt.Sprintf("Updated: %s (new stock: %d)", p.Name, p.Stock))
	}

	return l.Log.Append(lines...)
}

var _ Job = (*LowStockUpdate)(nil)
