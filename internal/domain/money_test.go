package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	testCases := []struct {
		name   string
		amount Money
		digits string
	}{
		{name: "million", amount: 1000000, digits: "1.000.000"},
		{name: "thousands", amount: 350000, digits: "350.000"},
		{name: "small", amount: 500, digits: "500"},
		{name: "zero", amount: 0, digits: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Format(tc.amount)
			assert.Contains(t, out, tc.digits)
			assert.Contains(t, out, "₫")
		})
	}
}

func TestFormatOptional_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, Format(0), FormatOptional(nil))
	})

	amount := Money(1000000)
	assert.Equal(t, Format(amount), FormatOptional(&amount))
}

func TestMoneyFromFloat(t *testing.T) {
	assert.Equal(t, Money(0), MoneyFromFloat(math.NaN()))
	assert.Equal(t, Money(0), MoneyFromFloat(math.Inf(1)))
	assert.Equal(t, Money(0), MoneyFromFloat(-10))
	assert.Equal(t, Money(1000), MoneyFromFloat(999.5))
	assert.Equal(t, Money(500000), MoneyFromFloat(500000))
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, Format(42000), Money(42000).String())
}
