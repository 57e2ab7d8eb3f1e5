package payment

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Stand-in BRL exchange rates. A production deployment would pull these from
// the crypto gateway's quote endpoint at checkout time.
var (
	btcBRL  = decimal.RequireFromString("620000")
	usdtBRL = decimal.RequireFromString("5.20")

	centsPerReal = decimal.NewFromInt(100)
)

// Quote converts a BRL cent amount into the crypto amount to charge,
// rounded to 8 decimal places.
func Quote(method Method, amountCents int64) (decimal.Decimal, string, error) {
	brl := decimal.NewFromInt(amountCents).Div(centsPerReal)
	switch method {
	case MethodBitcoin:
		return brl.DivRound(btcBRL, 8), "BTC", nil
	case MethodUSDT:
		return brl.DivRound(usdtBRL, 8), "USDT", nil
	default:
		return decimal.Zero, "", errors.Errorf("no crypto quote for method %q", method)
	}
}
