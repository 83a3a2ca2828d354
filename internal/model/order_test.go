package model

import "testing"

func TestParseOrderStatus(t *testing.T) {
	cases := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"", OrderStatusPending, true},
		{"pending", OrderStatusPending, true},
		{"Processing", OrderStatusProcessing, true},
		{" shipped ", OrderStatusShipped, true},
		{"DELIVERED", OrderStatusDelivered, true},
		{"cancelled", OrderStatusCancelled, true},
		{"canceled", OrderStatusPending, false},
		{"refunded", OrderStatusPending, false},
	}

	for _, tc := range cases {
		got, ok := ParseOrderStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseOrderStatus(%q) = (%s, %v), want (%s, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if OrderStatus("returned").Valid() {
		t.Error("returned should not be valid")
	}
}
