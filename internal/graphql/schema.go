package graphql

import (
	gql "github.com/graphql-go/graphql"
	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/crmbeat/internal/model"
	"github.com/jmehdipour/crmbeat/internal/repository"
)

// Deps carries everything the schema resolvers need.
type Deps struct {
	DB        *sqlx.DB
	Customers repository.CustomersRepository
	Products  repository.ProductsRepository
	Orders    repository.OrdersRepository
}

type resolver struct {
	db        *sqlx.DB
	customers repository.CustomersRepository
	products  repository.ProductsRepository
	orders    repository.OrdersRepository
}

type builder struct {
	r *resolver

	customerType  *gql.Object
	productType   *gql.Object
	orderItemType *gql.Object
	orderType     *gql.Object

	customerConn *gql.Object
	productConn  *gql.Object
	orderConn    *gql.Object

	customerInput  *gql.InputObject
	bulkInput      *gql.InputObject
	productInput   *gql.InputObject
	orderInput     *gql.InputObject
	customerFilter *gql.InputObject
	productFilter  *gql.InputObject
	orderFilter    *gql.InputObject

	createCustomerPayload *gql.Object
	bulkPayload           *gql.Object
	createProductPayload  *gql.Object
	createOrderPayload    *gql.Object
	lowStockPayload       *gql.Object
}

// NewSchema builds the CRM schema served on /graphql.
func NewSchema(d Deps) (gql.Schema, error) {
	r := &resolver{
		db:        d.DB,
		customers: d.Customers,
		products:  d.Products,
		orders:    d.Orders,
	}

	b := &builder{r: r}
	b.buildTypes()

	return gql.NewSchema(gql.SchemaConfig{
		Query:    b.query(),
		Mutation: b.mutation(),
	})
}

func (b *builder) query() *gql.Object {
	listArgs := func(filter *gql.InputObject) gql.FieldConfigArgument {
		return gql.FieldConfigArgument{
			"filter":  &gql.ArgumentConfig{Type: filter},
			"orderBy": &gql.ArgumentConfig{Type: gql.String},
			"limit":   &gql.ArgumentConfig{Type: gql.Int},
			"offset":  &gql.ArgumentConfig{Type: gql.Int},
		}
	}

	return gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"hello": &gql.Field{
				Type: gql.String,
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					return "Hello, GraphQL!", nil
				},
			},

			"customer": &gql.Field{
				Type: b.customerType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)},
				},
				Resolve: b.r.resolveCustomer,
			},
			"product": &gql.Field{
				Type: b.productType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)},
				},
				Resolve: b.r.resolveProduct,
			},
			"order": &gql.Field{
				Type: b.orderType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)},
				},
				Resolve: b.r.resolveOrder,
			},

			"allCustomers": &gql.Field{
				Type:    gql.NewNonNull(b.customerConn),
				Args:    listArgs(b.customerFilter),
				Resolve: b.r.resolveAllCustomers,
			},
			"allProducts": &gql.Field{
				Type:    gql.NewNonNull(b.productConn),
				Args:    listArgs(b.productFilter),
				Resolve: b.r.resolveAllProducts,
			},
			"allOrders": &gql.Field{
				Type:    gql.NewNonNull(b.orderConn),
				Args:    listArgs(b.orderFilter),
				Resolve: b.r.resolveAllOrders,
			},

			"customersByName": &gql.Field{
				Type: gql.NewList(b.customerType),
				Args: gql.FieldConfigArgument{
					"name":  &gql.ArgumentConfig{Type: gql.String},
					"email": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: b.r.resolveCustomersByName,
			},
			"productsByPriceRange": &gql.Field{
				Type: gql.NewList(b.productType),
				Args: gql.FieldConfigArgument{
					"minPrice": &gql.ArgumentConfig{Type: decimalType},
					"maxPrice": &gql.ArgumentConfig{Type: decimalType},
				},
				Resolve: b.r.resolveProductsByPriceRange,
			},
			"ordersByCustomer": &gql.Field{
				Type: gql.NewList(b.orderType),
				Args: gql.FieldConfigArgument{
					"customerName":  &gql.ArgumentConfig{Type: gql.String},
					"customerEmail": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: b.r.resolveOrdersByCustomer,
			},
		},
	})
}

// ---- query resolvers ----

func (r *resolver) resolveCustomer(p gql.ResolveParams) (interface{}, error) {
	id, ok := parseID(p.Args["id"])
	if !ok {
		return nil, nil
	}
	c, err := r.customers.GetByID(p.Context, id)
	if err != nil || c == nil {
		return nil, err
	}
	return customerNode(*c), nil
}

func (r *resolver) resolveProduct(p gql.ResolveParams) (interface{}, error) {
	id, ok := parseID(p.Args["id"])
	if !ok {
		return nil, nil
	}
	pr, err := r.products.GetByID(p.Context, id)
	if err != nil || pr == nil {
		return nil, err
	}
	return productNode(*pr), nil
}

func (r *resolver) resolveOrder(p gql.ResolveParams) (interface{}, error) {
	id, ok := parseID(p.Args["id"])
	if !ok {
		return nil, nil
	}
	o, err := r.orders.GetByID(p.Context, id)
	if err != nil || o == nil {
		return nil, err
	}
	return orderNode(*o), nil
}

func (r *resolver) resolveOrderItems(p gql.ResolveParams) (interface{}, error) {
	src, _ := p.Source.(map[string]interface{})
	id, ok := parseID(src["id"])
	if !ok {
		return nil, nil
	}
	items, err := r.orders.ItemsByOrderID(p.Context, id)
	if err != nil {
		return nil, err
	}
	nodes := make([]interface{}, len(items))
	for i, it := range items {
		nodes[i] = orderItemNode(it)
	}
	return nodes, nil
}

func (r *resolver) resolveAllCustomers(p gql.ResolveParams) (interface{}, error) {
	f := customerFilterFromArgs(p)

	total, err := r.customers.Count(p.Context, f)
	if err != nil {
		return nil, err
	}
	rows, err := r.customers.List(p.Context, f)
	if err != nil {
		return nil, err
	}

	nodes := make([]map[string]interface{}, len(rows))
	for i, c := range rows {
		nodes[i] = customerNode(c)
	}
	return connection(total, nodes), nil
}

func (r *resolver) resolveAllProducts(p gql.ResolveParams) (interface{}, error) {
	f := productFilterFromArgs(p)

	total, err := r.products.Count(p.Context, f)
	if err != nil {
		return nil, err
	}
	rows, err := r.products.List(p.Context, f)
	if err != nil {
		return nil, err
	}

	nodes := make([]map[string]interface{}, len(rows))
	for i, pr := range rows {
		nodes[i] = productNode(pr)
	}
	return connection(total, nodes), nil
}

func (r *resolver) resolveAllOrders(p gql.ResolveParams) (interface{}, error) {
	f := orderFilterFromArgs(p)

	total, err := r.orders.Count(p.Context, f)
	if err != nil {
		return nil, err
	}
	rows, err := r.orders.List(p.Context, f)
	if err != nil {
		return nil, err
	}

	nodes := make([]map[string]interface{}, len(rows))
	for i, o := range rows {
		nodes[i] = orderNode(o)
	}
	return connection(total, nodes), nil
}

func (r *resolver) resolveCustomersByName(p gql.ResolveParams) (interface{}, error) {
	f := repository.CustomerFilter{
		NameContains:  getString(p.Args, "name"),
		EmailContains: getString(p.Args, "email"),
	}
	rows, err := r.customers.List(p.Context, f)
	if err != nil {
		return nil, err
	}
	nodes := make([]interface{}, len(rows))
	for i, c := range rows {
		nodes[i] = customerNode(c)
	}
	return nodes, nil
}

func (r *resolver) resolveProductsByPriceRange(p gql.ResolveParams) (interface{}, error) {
	f := repository.ProductFilter{
		PriceGte: getDecimal(p.Args, "minPrice"),
		PriceLte: getDecimal(p.Args, "maxPrice"),
		OrderBy:  "price",
	}
	rows, err := r.products.List(p.Context, f)
	if err != nil {
		return nil, err
	}
	nodes := make([]interface{}, len(rows))
	for i, pr := range rows {
		nodes[i] = productNode(pr)
	}
	return nodes, nil
}

func (r *resolver) resolveOrdersByCustomer(p gql.ResolveParams) (interface{}, error) {
	f := repository.OrderFilter{
		CustomerNameContains:  getString(p.Args, "customerName"),
		CustomerEmailContains: getString(p.Args, "customerEmail"),
		OrderBy:               "-orderDate",
	}
	rows, err := r.orders.List(p.Context, f)
	if err != nil {
		return nil, err
	}
	nodes := make([]interface{}, len(rows))
	for i, o := range rows {
		nodes[i] = orderNode(o)
	}
	return nodes, nil
}

// ---- filter mapping ----

func customerFilterFromArgs(p gql.ResolveParams) repository.CustomerFilter {
	filter := argObject(p, "filter")
	f := repository.CustomerFilter{
		NameContains:  getString(filter, "nameContains"),
		EmailContains: getString(filter, "emailContains"),
		PhonePrefix:   getString(filter, "phonePrefix"),
		CreatedAtGte:  getTime(filter, "createdAtGte"),
		CreatedAtLte:  getTime(filter, "createdAtLte"),
		OrderBy:       getString(p.Args, "orderBy"),
	}
	f.Limit, _ = getInt(p.Args, "limit")
	f.Offset, _ = getInt(p.Args, "offset")
	return f
}

func productFilterFromArgs(p gql.ResolveParams) repository.ProductFilter {
	filter := argObject(p, "filter")
	f := repository.ProductFilter{
		NameContains: getString(filter, "nameContains"),
		PriceGte:     getDecimal(filter, "priceGte"),
		PriceLte:     getDecimal(filter, "priceLte"),
		LowStock:     getBool(filter, "lowStock"),
		OrderBy:      getString(p.Args, "orderBy"),
	}
	if v, ok := getInt(filter, "stockGte"); ok {
		f.StockGte = &v
	}
	if v, ok := getInt(filter, "stockLte"); ok {
		f.StockLte = &v
	}
	f.Limit, _ = getInt(p.Args, "limit")
	f.Offset, _ = getInt(p.Args, "offset")
	return f
}

func orderFilterFromArgs(p gql.ResolveParams) repository.OrderFilter {
	filter := argObject(p, "filter")
	f := repository.OrderFilter{
		OrderDateGte:          getTime(filter, "orderDateGte"),
		OrderDateLte:          getTime(filter, "orderDateLte"),
		TotalAmountGte:        getDecimal(filter, "totalAmountGte"),
		TotalAmountLte:        getDecimal(filter, "totalAmountLte"),
		CustomerNameContains:  getString(filter, "customerName"),
		CustomerEmailContains: getString(filter, "customerEmail"),
		ProductNameContains:   getString(filter, "productName"),
		OrderBy:               getString(p.Args, "orderBy"),
	}
	if s := getString(filter, "status"); s != "" {
		if st, ok := model.ParseOrderStatus(s); ok {
			f.Status = st
		}
	}
	if filter != nil {
		if id, ok := parseID(filter["productId"]); ok {
			f.ProductID = id
		}
	}
	f.Limit, _ = getInt(p.Args, "limit")
	f.Offset, _ = getInt(p.Args, "offset")
	return f
}
