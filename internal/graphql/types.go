package graphql

import (
	"strconv"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/shopspring/decimal"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// decimalType serializes money as exact strings so clients never see
// float rounding on prices or totals.
var decimalType = gql.NewScalar(gql.ScalarConfig{
	Name:        "Decimal",
	Description: "Arbitrary-precision decimal, serialized as a string.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case decimal.Decimal:
			return v.String()
		case *decimal.Decimal:
			if v == nil {
				return nil
			}
			return v.String()
		case string:
			return v
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil
			}
			return d
		case float64:
			return decimal.NewFromFloat(v)
		case int:
			return decimal.NewFromInt(int64(v))
		default:
			return nil
		}
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			d, err := decimal.NewFromString(v.Value)
			if err != nil {
				return nil
			}
			return d
		case *ast.FloatValue:
			d, err := decimal.NewFromString(v.Value)
			if err != nil {
				return nil
			}
			return d
		case *ast.IntValue:
			d, err := decimal.NewFromString(v.Value)
			if err != nil {
				return nil
			}
			return d
		default:
			return nil
		}
	},
})

// ---- node maps ----
//
// Resolvers hand object fields to graphql-go as maps; the default resolver
// then serves fields by key lookup and nested objects need no per-field
// resolve functions.

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func customerNode(c model.Customer) map[string]interface{} {
	m := map[string]interface{}{
		"id":        formatID(c.ID),
		"name":      c.Name,
		"email":     c.Email,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
	if c.Phone != nil {
		m["phone"] = *c.Phone
	}
	return m
}

func productNode(p model.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":          formatID(p.ID),
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
}

func orderNode(o model.OrderWithCustomer) map[string]interface{} {
	cust := map[string]interface{}{
		"id":    formatID(o.CustomerID),
		"name":  o.CustomerName,
		"email": o.CustomerEmail,
	}
	if o.CustomerPhone != nil {
		cust["phone"] = *o.CustomerPhone
	}
	return map[string]interface{}{
		"id":          formatID(o.ID),
		"customer":    cust,
		"status":      o.Status.String(),
		"totalAmount": o.TotalAmount,
		"orderDate":   o.OrderDate,
		"createdAt":   o.CreatedAt,
		"updatedAt":   o.UpdatedAt,
	}
}

func orderItemNode(it model.OrderItemDetail) map[string]interface{} {
	return map[string]interface{}{
		"id":              formatID(it.ID),
		"productId":       formatID(it.ProductID),
		"productName":     it.ProductName,
		"quantity":        it.Quantity,
		"priceAtPurchase": it.PriceAtPurchase,
	}
}

func connection(total int64, nodes []map[string]interface{}) map[string]interface{} {
	edges := make([]interface{}, len(nodes))
	for i, n := range nodes {
		edges[i] = map[string]interface{}{"node": n}
	}
	return map[string]interface{}{
		"totalCount": int(total),
		"edges":      edges,
	}
}

// ---- object types ----

func (b *builder) buildTypes() {
	b.customerType = gql.NewObject(gql.ObjectConfig{
		Name: "Customer",
		Fields: gql.Fields{
			"id":        &gql.Field{Type: gql.NewNonNull(gql.ID)},
			"name":      &gql.Field{Type: gql.NewNonNull(gql.String)},
			"email":     &gql.Field{Type: gql.NewNonNull(gql.String)},
			"phone":     &gql.Field{Type: gql.String},
			"createdAt": &gql.Field{Type: gql.DateTime},
			"updatedAt": &gql.Field{Type: gql.DateTime},
		},
	})

	b.productType = gql.NewObject(gql.ObjectConfig{
		Name: "Product",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
			"name":        &gql.Field{Type: gql.NewNonNull(gql.String)},
			"description": &gql.Field{Type: gql.String},
			"price":       &gql.Field{Type: gql.NewNonNull(decimalType)},
			"stock":       &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"createdAt":   &gql.Field{Type: gql.DateTime},
			"updatedAt":   &gql.Field{Type: gql.DateTime},
		},
	})

	b.orderItemType = gql.NewObject(gql.ObjectConfig{
		Name: "OrderItem",
		Fields: gql.Fields{
			"id":              &gql.Field{Type: gql.NewNonNull(gql.ID)},
			"productId":       &gql.Field{Type: gql.NewNonNull(gql.ID)},
			"productName":     &gql.Field{Type: gql.NewNonNull(gql.String)},
			"quantity":        &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"priceAtPurchase": &gql.Field{Type: gql.NewNonNull(decimalType)},
		},
	})

	b.orderType = gql.NewObject(gql.ObjectConfig{
		Name: "Order",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
			"customer":    &gql.Field{Type: b.customerType},
			"status":      &gql.Field{Type: gql.NewNonNull(gql.String)},
			"totalAmount": &gql.Field{Type: gql.NewNonNull(decimalType)},
			"orderDate":   &gql.Field{Type: gql.DateTime},
			"createdAt":   &gql.Field{Type: gql.DateTime},
			"updatedAt":   &gql.Field{Type: gql.DateTime},
			"items": &gql.Field{
				Type:    gql.NewList(b.orderItemType),
				Resolve: b.r.resolveOrderItems,
			},
		},
	})

	b.customerConn = connectionType("Customer", b.customerType)
	b.productConn = connectionType("Product", b.productType)
	b.orderConn = connectionType("Order", b.orderType)

	b.buildInputs()
	b.buildPayloads()
}

func connectionType(name string, node *gql.Object) *gql.Object {
	edge := gql.NewObject(gql.ObjectConfig{
		Name: name + "Edge",
		Fields: gql.Fields{
			"node": &gql.Field{Type: node},
		},
	})
	return gql.NewObject(gql.ObjectConfig{
		Name: name + "Connection",
		Fields: gql.Fields{
			"totalCount": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"edges":      &gql.Field{Type: gql.NewNonNull(gql.NewList(edge))},
		},
	})
}

// ---- input types ----

func (b *builder) buildInputs() {
	b.customerInput = gql.NewInputObject(gql.InputObjectConfig{
		Name: "CustomerInput",
		Fields: gql.InputObjectConfigFieldMap{
			"name":  &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"email": &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"phone": &gql.InputObjectFieldConfig{Type: gql.String},
		},
	})

	b.bulkInput = gql.NewInputObject(gql.InputObjectConfig{
		Name: "BulkCustomerInput",
		Fields: gql.InputObjectConfigFieldMap{
			"customers": &gql.InputObjectFieldConfig{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(b.customerInput))),
			},
		},
	})

	b.productInput = gql.NewInputObject(gql.InputObjectConfig{
		Name: "ProductInput",
		Fields: gql.InputObjectConfigFieldMap{
			"name":        &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"description": &gql.InputObjectFieldConfig{Type: gql.String},
			"price":       &gql.InputObjectFieldConfig{Type: gql.NewNonNull(decimalType)},
			"stock":       &gql.InputObjectFieldConfig{Type: gql.Int},
		},
	})

	b.orderInput = gql.NewInputObject(gql.InputObjectConfig{
		Name: "OrderInput",
		Fields: gql.InputObjectConfigFieldMap{
			"customerId": &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.ID)},
			"productIds": &gql.InputObjectFieldConfig{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(gql.ID))),
			},
			"orderDate": &gql.InputObjectFieldConfig{Type: gql.DateTime},
		},
	})

	b.customerFilter = gql.NewInputObject(gql.InputObjectConfig{
		Name: "CustomerFilterInput",
		Fields: gql.InputObjectConfigFieldMap{
			"nameContains":  &gql.InputObjectFieldConfig{Type: gql.String},
			"emailContains": &gql.InputObjectFieldConfig{Type: gql.String},
			"phonePrefix":   &gql.InputObjectFieldConfig{Type: gql.String},
			"createdAtGte":  &gql.InputObjectFieldConfig{Type: gql.DateTime},
			"createdAtLte":  &gql.InputObjectFieldConfig{Type: gql.DateTime},
		},
	})

	b.productFilter = gql.NewInputObject(gql.InputObjectConfig{
		Name: "ProductFilterInput",
		Fields: gql.InputObjectConfigFieldMap{
			"nameContains": &gql.InputObjectFieldConfig{Type: gql.String},
			"priceGte":     &gql.InputObjectFieldConfig{Type: decimalType},
			"priceLte":     &gql.InputObjectFieldConfig{Type: decimalType},
			"stockGte":     &gql.InputObjectFieldConfig{Type: gql.Int},
			"stockLte":     &gql.InputObjectFieldConfig{Type: gql.Int},
			"lowStock":     &gql.InputObjectFieldConfig{Type: gql.Boolean},
		},
	})

	b.orderFilter = gql.NewInputObject(gql.InputObjectConfig{
		Name: "OrderFilterInput",
		Fields: gql.InputObjectConfigFieldMap{
			"status":         &gql.InputObjectFieldConfig{Type: gql.String},
			"orderDateGte":   &gql.InputObjectFieldConfig{Type: gql.DateTime},
			"orderDateLte":   &gql.InputObjectFieldConfig{Type: gql.DateTime},
			"totalAmountGte": &gql.InputObjectFieldConfig{Type: decimalType},
			"totalAmountLte": &gql.InputObjectFieldConfig{Type: decimalType},
			"customerName":   &gql.InputObjectFieldConfig{Type: gql.String},
			"customerEmail":  &gql.InputObjectFieldConfig{Type: gql.String},
			"productName":    &gql.InputObjectFieldConfig{Type: gql.String},
			"productId":      &gql.InputObjectFieldConfig{Type: gql.ID},
		},
	})
}

// ---- mutation payloads ----

func (b *builder) buildPayloads() {
	b.createCustomerPayload = gql.NewObject(gql.ObjectConfig{
		Name: "CreateCustomerPayload",
		Fields: gql.Fields{
			"customer": &gql.Field{Type: b.customerType},
			"message":  &gql.Field{Type: gql.String},
		},
	})

	b.bulkPayload = gql.NewObject(gql.ObjectConfig{
		Name: "BulkCreateCustomersPayload",
		Fields: gql.Fields{
			"customers": &gql.Field{Type: gql.NewList(b.customerType)},
			"errors":    &gql.Field{Type: gql.NewList(gql.String)},
		},
	})

	b.createProductPayload = gql.NewObject(gql.ObjectConfig{
		Name: "CreateProductPayload",
		Fields: gql.Fields{
			"product": &gql.Field{Type: b.productType},
		},
	})

	b.createOrderPayload = gql.NewObject(gql.ObjectConfig{
		Name: "CreateOrderPayload",
		Fields: gql.Fields{
			"order": &gql.Field{Type: b.orderType},
		},
	})

	b.lowStockPayload = gql.NewObject(gql.ObjectConfig{
		Name: "UpdateLowStockProductsPayload",
		Fields: gql.Fields{
			"updatedProducts": &gql.Field{Type: gql.NewList(b.productType)},
			"message":         &gql.Field{Type: gql.String},
		},
	})
}
