package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo CRM data (dev: clears existing rows)",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// 2) connect MySQL
		sqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo CRM data...")

		if err := seedCRM(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

type seedCustomer struct {
	name  string
	email string
	phone string
}

type seedProduct struct {
	name        string
	description string
	price       decimal.Decimal
	stock       int
}

type seedItem struct {
	product  int // index into seed products
	quantity int
}

// seedCRM clears the CRM tables and inserts five customers, five products
// and five delivered orders, all in one transaction.
func seedCRM(dbx *sqlx.DB) error {
	customers := []seedCustomer{
		{name: "Alice Johnson", email: "alice@example.com", phone: "+1234567890"},
		{name: "Bob Smith", email: "bob@example.com", phone: "123-456-7890"},
		{name: "Carol Williams", email: "carol@example.com", phone: "+1987654321"},
		{name: "David Brown", email: "david@example.com", phone: "987-654-3210"},
		{name: "Eva Davis", email: "eva@example.com", phone: "+1122334455"},
	}

	products := []seedProduct{
		{
			name:        "Laptop Pro",
			description: "High-performance laptop with 16GB RAM, 512GB SSD",
			price:       decimal.RequireFromString("1299.99"),
			stock:       15,
		},
		{
			name:        "Smartphone X",
			description: "Latest smartphone with 128GB storage",
			price:       decimal.RequireFromString("899.99"),
			stock:       30,
		},
		{
			name:        "Wireless Headphones",
			description: "Noise-cancelling wireless headphones",
			price:       decimal.RequireFromString("249.99"),
			stock:       50,
		},
		{
			name:        "Smart Watch",
			description: "Fitness tracking smartwatch with GPS",
			price:       decimal.RequireFromString("299.99"),
			stock:       25,
		},
		{
			name:        "Tablet Air",
			description: "Lightweight tablet with 10-inch display",
			price:       decimal.RequireFromString("499.99"),
			stock:       20,
		},
	}

	// customer index -> items
	orders := [][]seedItem{
		{{product: 0, quantity: 1}, {product: 2, quantity: 2}}, // Alice
		{{product: 1, quantity: 1}, {product: 3, quantity: 1}}, // Bob
		{{product: 4, quantity: 1}, {product: 2, quantity: 1}, {product: 3, quantity: 1}}, // Carol
		{{product: 0, quantity: 2}, {product: 1, quantity: 1}},                            // David
		{{product: 2, quantity: 3}, {product: 4, quantity: 1}},                            // Eva
	}

	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// clear in FK order
	for _, table := range []string{"order_items", "orders", "purge_outbox", "customers", "products"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	now := time.Now()

	customerIDs := make([]int64, len(customers))
	for i, c := range customers {
		res, err := tx.Exec(
			`INSERT INTO customers (name, email, phone, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			c.name, c.email, c.phone, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert customer %q: %w", c.name, err)
		}
		customerIDs[i], _ = res.LastInsertId()
		log.Printf("   customer: %s (%s)", c.name, c.email)
	}

	productIDs := make([]int64, len(products))
	stock := make([]int, len(products))
	for i, p := range products {
		res, err := tx.Exec(
			`INSERT INTO products (name, description, price, stock, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			p.name, p.description, p.price, p.stock, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert product %q: %w", p.name, err)
		}
		productIDs[i], _ = res.LastInsertId()
		stock[i] = p.stock
		log.Printf("   product: %s - $%s (stock: %d)", p.name, p.price, p.stock)
	}

	for ci, items := range orders {
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(products[it.product].price.Mul(decimal.NewFromInt(int64(it.quantity))))
		}

		res, err := tx.Exec(
			`INSERT INTO orders (customer_id, status, total_amount, order_date, created_at, updated_at)
			 VALUES (?, 'delivered', ?, ?, ?, ?)`,
			customerIDs[ci], total, now, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert order for %q: %w", customers[ci].name, err)
		}
		orderID, _ := res.LastInsertId()

		for _, it := range items {
			if _, err := tx.Exec(
				`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase) VALUES (?, ?, ?, ?)`,
				orderID, productIDs[it.product], it.quantity, products[it.product].price,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			stock[it.product] -= it.quantity
		}

		log.Printf("   order: #%d for %s - total: $%s", orderID, customers[ci].name, total)
	}

	// apply stock decrements from the seeded orders
	for i, s := range stock {
		if s == products[i].stock {
			continue
		}
		if _, err := tx.Exec(`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, s, now, productIDs[i]); err != nil {
			return fmt.Errorf("update stock %q: %w", products[i].name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
