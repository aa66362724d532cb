package valueobject

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the precision of every stored monetary amount
const MoneyPlaces int32 = 2

// RoundAmount rounds half away from zero to MoneyPlaces
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ApplyRate returns base scaled by rate, rounded to MoneyPlaces.
// Tax and commission are both derived this way from the net amount.
func ApplyRate(base, rate decimal.Decimal) decimal.Decimal {
	return RoundAmount(base.Mul(rate))
}

// Money is a rounded amount bound to the currency it was priced in.
// Aggregates store the two in separate columns and hand out Money for
// display and logging.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney rounds amount and pairs it with currency
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: RoundAmount(amount), currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() Currency { return m.currency }

// String renders "120.00 EUR", or the bare amount when no currency is set
func (m Money) String() string {
	if m.currency.IsZero() {
		return m.amount.StringFixed(MoneyPlaces)
	}
	return m.amount.StringFixed(MoneyPlaces) + " " + m.currency.String()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency,omitempty"`
	}{m.amount.StringFixed(MoneyPlaces), m.currency})
}
