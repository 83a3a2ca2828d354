package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/crmbeat/internal/joblog"
)

const pendingOrdersQuery = `
query GetPendingOrders($fromDate: DateTime!) {
    allOrders(filter: {
        orderDateGte: $fromDate,
        status: "pending"
    }) {
        edges {
            node {
                id
                customer {
                    name
                    email
                }
                orderDate
                totalAmount
            }
        }
    }
}`

// OrderReminders queries the GraphQL API for pending orders placed within
// the reminder window and logs one reminder line per order.
type OrderReminders struct {
	Log  *joblog.Writer
	GQL  GraphQLClient
	Days int
}

func (r *OrderReminders) Name() string { return "order_reminders" }

func (r *OrderReminders) Run(ctx context.Context) error {
	days := r.Days
	if days <= 0 {
		days = 7
	}

	fromDate := time.Now().AddDate(0, 0, -days)

	var out struct {
		AllOrders struct {
			Edges []struct {
				Node struct {
					ID       string `json:"id"`
					Customer struct {
						Name  string `json:"name"`
						Email string `json:"email"`
					} `json:"customer"`
					OrderDate   string `json:"orderDate"`
					TotalAmount string `json:"totalAmount"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"allOrders"`
	}

	err := r.GQL.Do(ctx, pendingOrdersQuery, map[string]any{
		"fromDate": fromDate.Format(time.RFC3339),
	}, &out)

	ts := time.Now().Format(jobTimeLayout)
	if err != nil {
		werr := r.Log.Append(
			"",
			joblog.Banner(50),
			fmt.Sprintf("ERROR - %s", ts),
			fmt.Sprintf("Error: %v", err),
		)
		if werr != nil {
			return fmt.Errorf("%v (log write: %v)", err, werr)
		}
		return err
	}

	lines := []string{
		"",
		joblog.Banner(50),
		fmt.Sprintf("Order Reminders - %s", ts),
		joblog.Banner(50),
	}

	edges := out.AllOrders.Edges
	if len(edges) == 0 {
		lines = append(lines, fmt.Sprintf("No pending orders found from the last %d days.", days))
	} else {
		for _, e := range edges {
			o := e.Node
			lines = append(lines, fmt.Sprintf("Order ID: %s, Customer: %s (%s), Date: %s, Amount: $%s",
				o.ID, o.Customer.Name, o.Customer.Email, o.OrderDate, o.TotalAmount))
		}
	}

	return r.Log.Append(lines...)
}

var _ Job = (*OrderReminders)(nil)
