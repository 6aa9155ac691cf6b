package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCart_Total(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(20)},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
	}}

	assert.True(t, decimal.NewFromInt(40).Equal(cart.Total()))
	assert.Equal(t, 3, cart.ItemCount())
	assert.False(t, cart.IsEmpty())
}

func TestCart_Empty(t *testing.T) {
	var nilCart *Cart
	assert.True(t, nilCart.IsEmpty())
	assert.True(t, nilCart.Total().IsZero())
	assert.True(t, (&Cart{}).IsEmpty())
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "**** 4242", MaskCardNumber("4242 4242 4242 4242"))
	assert.Equal(t, "****", MaskCardNumber("12"))

	card := CardDetails{Number: "4000000000009995", Expiry: "07/25", CVC: "123"}
	s := card.String()
	assert.NotContains(t, s, "4000000000009995")
	assert.NotContains(t, s, "07/25")
	assert.NotContains(t, s, "123")
}
