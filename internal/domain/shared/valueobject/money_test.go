package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		c, err := ParseCurrency(" eur ")
		require.NoError(t, err)
		assert.Equal(t, Currency("EUR"), c)
	})

	t.Run("rejects unknown codes", func(t *testing.T) {
		_, err := ParseCurrency("QQQ")
		assert.Error(t, err)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseCurrency("EURO")
		assert.Error(t, err)
		_, err = ParseCurrency("")
		assert.Error(t, err)
	})
}

func TestRoundAmount_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "2.35", RoundAmount(decimal.RequireFromString("2.345")).StringFixed(2))
	assert.Equal(t, "-2.35", RoundAmount(decimal.RequireFromString("-2.345")).StringFixed(2))
	assert.Equal(t, "2.34", RoundAmount(decimal.RequireFromString("2.3449")).StringFixed(2))
}

func TestApplyRate(t *testing.T) {
	net := decimal.RequireFromString("123.45")

	tax := ApplyRate(net, decimal.RequireFromString("0.2"))
	assert.Equal(t, "24.69", tax.StringFixed(2))

	commission := ApplyRate(net, decimal.RequireFromString("0.075"))
	assert.Equal(t, "9.26", commission.StringFixed(2))

	assert.True(t, ApplyRate(net, decimal.Zero).IsZero())
}

func TestMoney(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("12.505"), "EUR")
	assert.Equal(t, "12.51", m.Amount().StringFixed(2))
	assert.Equal(t, Currency("EUR"), m.Currency())
	assert.Equal(t, "12.51 EUR", m.String())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.51","currency":"EUR"}`, string(data))

	bare := NewMoney(decimal.NewFromInt(3), "")
	assert.Equal(t, "3.00", bare.String())
	data, err = json.Marshal(bare)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"3.00"}`, string(data))
}
