package graphql

import (
	"fmt"
	"time"

	gql "github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/jmehdipour/crmbeat/internal/model"
	"github.com/jmehdipour/crmbeat/internal/validate"
)

const phoneFormatMsg = "Phone number must be in format: +1234567890 or 123-456-7890"

func validationError(format string, args ...any) error {
	return fmt.Errorf("Validation error: "+format, args...)
}

func (b *builder) mutation() *gql.Object {
	return gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"createCustomer": &gql.Field{
				Type: b.createCustomerPayload,
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(b.customerInput)},
				},
				Resolve: b.r.createCustomer,
			},
			"bulkCreateCustomers": &gql.Field{
				Type: b.bulkPayload,
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(b.bulkInput)},
				},
				Resolve: b.r.bulkCreateCustomers,
			},
			"createProduct": &gql.Field{
				Type: b.createProductPayload,
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(b.productInput)},
				},
				Resolve: b.r.createProduct,
			},
			"createOrder": &gql.Field{
				Type: b.createOrderPayload,
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(b.orderInput)},
				},
				Resolve: b.r.createOrder,
			},
			"updateLowStockProducts": &gql.Field{
				Type: b.lowStockPayload,
				Args: gql.FieldConfigArgument{
					"incrementBy": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 10},
				},
				Resolve: b.r.updateLowStockProducts,
			},
		},
	})
}

func (r *resolver) createCustomer(p gql.ResolveParams) (interface{}, error) {
	input := argObject(p, "input")
	name := getString(input, "name")
	email := getString(input, "email")
	phone := getString(input, "phone")

	if name == "" || email == "" {
		return nil, validationError("Name and email are required")
	}
	if !validate.Email(email) {
		return nil, validationError("Invalid email format")
	}
	if phone != "" && !validate.Phone(phone) {
		return nil, validationError(phoneFormatMsg)
	}

	tx, err := r.db.BeginTxx(p.Context, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := r.customers.EmailExists(p.Context, tx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, validationError("Email '%s' already exists", email)
	}

	c := model.Customer{Name: name, Email: email}
	if phone != "" {
		c.Phone = &phone
	}
	id, err := r.customers.Create(p.Context, tx, c)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	now := time.Now()
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now

	return map[string]interface{}{
		"customer": customerNode(c),
		"message":  "Customer created successfully",
	}, nil
}

func (r *resolver) bulkCreateCustomers(p gql.ResolveParams) (interface{}, error) {
	input := argObject(p, "input")
	rawList, _ := input["customers"].([]interface{})

	tx, err := r.db.BeginTxx(p.Context, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created := make([]interface{}, 0, len(rawList))
	errs := make([]interface{}, 0)
	seen := make(map[string]bool, len(rawList))
	now := time.Now()

	for idx, raw := range rawList {
		n := idx + 1
		m, _ := raw.(map[string]interface{})
		name := getString(m, "name")
		email := getString(m, "email")
		phone := getString(m, "phone")

		switch {
		case name == "" || email == "":
			errs = append(errs, fmt.Sprintf("Customer %d: Name and email are required", n))
			continue
		case !validate.Email(email):
			errs = append(errs, fmt.Sprintf("Customer %d: Invalid email format", n))
			continue
		case seen[email]:
			errs = append(errs, fmt.Sprintf("Customer %d: Email already in batch", n))
			continue
		}

		exists, err := r.customers.EmailExists(p.Context, tx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			errs = append(errs, fmt.Sprintf("Customer %d: Email already exists in database", n))
			continue
		}

		if phone != "" && !validate.Phone(phone) {
			errs = append(errs, fmt.Sprintf("Customer %d: %s", n, phoneFormatMsg))
			continue
		}

		c := model.Customer{Name: name, Email: email}
		if phone != "" {
			ph := phone
			c.Phone = &ph
		}
		id, err := r.customers.Create(p.Context, tx, c)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Customer %d: %v", n, err))
			continue
		}

		seen[email] = true
		c.ID = id
		c.CreatedAt = now
		c.UpdatedAt = now
		created = append(created, customerNode(c))
	}

	// valid rows commit even when some entries failed validation
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"customers": created,
		"errors":    errs,
	}, nil
}

func (r *resolver) createProduct(p gql.ResolveParams) (interface{}, error) {
	input := argObject(p, "input")
	name := getString(input, "name")
	description := getString(input, "description")

	price := getDecimal(input, "price")
	if price == nil || !price.GreaterThan(decimal.Zero) {
		return nil, validationError("Price must be positive")
	}

	stock := 0
	if v, ok := getInt(input, "stock"); ok {
		if v < 0 {
			return nil, validationError("Stock cannot be negative")
		}
		stock = v
	}

	pr := model.Product{
		Name:        name,
		Description: description,
		Price:       *price,
		Stock:       stock,
	}
	id, err := r.products.Create(p.Context, nil, pr)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	now := time.Now()
	pr.ID = id
	pr.CreatedAt = now
	pr.UpdatedAt = now

	return map[string]interface{}{"product": productNode(pr)}, nil
}

func (r *resolver) createOrder(p gql.ResolveParams) (interface{}, error) {
	input := argObject(p, "input")

	rawIDs, _ := input["productIds"].([]interface{})
	if len(rawIDs) == 0 {
		return nil, validationError("At least one product is required")
	}

	customerID, ok := parseID(input["customerId"])
	if !ok {
		return nil, validationError("Customer with ID %v not found", input["customerId"])
	}
	customer, err := r.customers.GetByID(p.Context, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, validationError("Customer with ID %d not found", customerID)
	}

	// one order line per occurrence, quantity 1 each
	productIDs := make([]int64, len(rawIDs))
	for i, raw := range rawIDs {
		id, ok := parseID(raw)
		if !ok {
			return nil, validationError("Product with ID %v not found", raw)
		}
		productIDs[i] = id
	}

	unique := make([]int64, 0, len(productIDs))
	seen := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	tx, err := r.db.BeginTxx(p.Context, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	locked, err := r.products.ListByIDsForUpdate(p.Context, tx, unique)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	stockLeft := make(map[int64]int, len(locked))
	byID := make(map[int64]model.Product, len(locked))
	for _, pr := range locked {
		byID[pr.ID] = pr
		stockLeft[pr.ID] = pr.Stock
	}

	total := decimal.Zero
	for _, id := range productIDs {
		pr, ok := byID[id]
		if !ok {
			return nil, validationError("Product with ID %d not found", id)
		}
		if stockLeft[id] <= 0 {
			return nil, validationError("Product '%s' is out of stock", pr.Name)
		}
		stockLeft[id]--
		total = total.Add(pr.Price)
	}

	orderDate := time.Now()
	if t := getTime(input, "orderDate"); t != nil {
		orderDate = *t
	}

	orderID, err := r.orders.Create(p.Context, tx, model.Order{
		CustomerID:  customerID,
		Status:      model.OrderStatusPending,
		TotalAmount: total,
		OrderDate:   orderDate,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, id := range productIDs {
		pr := byID[id]
		if err := r.orders.InsertItem(p.Context, tx, model.OrderItem{
			OrderID:         orderID,
			ProductID:       id,
			Quantity:        1,
			PriceAtPurchase: pr.Price,
		}); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		if err := r.products.DecrementStockOne(p.Context, tx, id); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	o, err := r.orders.GetByID(p.Context, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %d not found after create", orderID)
	}

	return map[string]interface{}{"order": orderNode(*o)}, nil
}

func (r *resolver) updateLowStockProducts(p gql.ResolveParams) (interface{}, error) {
	incrementBy := 10
	if v, ok := getInt(p.Args, "incrementBy"); ok {
		incrementBy = v
	}

	tx, err := r.db.BeginTxx(p.Context, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	low, err := r.products.SelectLowStockForUpdate(p.Context, tx, 10)
	if err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}

	if len(low) > 0 {
		ids := make([]int64, len(low))
		for i, pr := range low {
			ids[i] = pr.ID
		}
		if err := r.products.IncrementStock(p.Context, tx, ids, incrementBy); err != nil {
			return nil, fmt.Errorf("increment stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	updated := make([]interface{}, len(low))
	for i, pr := range low {
		pr.Stock += incrementBy
		updated[i] = productNode(pr)
	}

	return map[string]interface{}{
		"updatedProducts": updated,
		"message":         fmt.Sprintf("Updated %d low-stock products. Stock increased by %d each.", len(low), incrementBy),
	}, nil
}
