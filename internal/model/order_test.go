package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrderStatus(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		ok   bool
	}{
		{"new to ack", OrderStatusNew, OrderStatusAck, true},
		{"ack to prep", OrderStatusAck, OrderStatusPrep, true},
		{"prep to served", OrderStatusPrep, OrderStatusServed, true},
		{"served to closed", OrderStatusServed, OrderStatusClosed, true},
		{"skip a step", OrderStatusNew, OrderStatusPrep, false},
		{"backwards", OrderStatusPrep, OrderStatusAck, false},
		{"closed early", OrderStatusAck, OrderStatusClosed, false},
		{"cancel from new", OrderStatusNew, OrderStatusCancel, true},
		{"cancel from served", OrderStatusServed, OrderStatusCancel, true},
		{"out of closed", OrderStatusClosed, OrderStatusCancel, false},
		{"out of cancel", OrderStatusCancel, OrderStatusAck, false},
		{"unknown from", "WAT", OrderStatusAck, false},
		{"unknown to", OrderStatusNew, "WAT", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, CanTransitionOrderStatus(tc.from, tc.to))
		})
	}
}
