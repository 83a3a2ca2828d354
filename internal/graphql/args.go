package graphql

import (
	"strconv"
	"time"

	gql "github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"
)

// graphql-go delivers arguments and input objects as map[string]interface{};
// these helpers pull typed values out without panicking on absent keys.

func argObject(p gql.ResolveParams, key string) map[string]interface{} {
	if v, ok := p.Args[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func getString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]interface{}, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

func getBool(m map[string]interface{}, key string) bool {
	if m == nil {
		return false
	}
	v, _ := m[key].(bool)
	return v
}

func getTime(m map[string]interface{}, key string) *time.Time {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case time.Time:
		return &v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
	}
	return nil
}

func getDecimal(m map[string]interface{}, key string) *decimal.Decimal {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case decimal.Decimal:
		return &v
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return &d
		}
	}
	return nil
}

// parseID converts a GraphQL ID argument into an int64 row id.
func parseID(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case string:
		id, err := strconv.ParseInt(x, 10, 64)
		return id, err == nil && id > 0
	case int:
		return int64(x), x > 0
	}
	return 0, false
}
