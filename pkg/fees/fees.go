// Package fees splits a booking amount into the platform deductions and the
// worker's share.
package fees

import (
	"github.com/shopspring/decimal"
)

var (
	platformRate  = decimal.RequireFromString("0.01")
	welfareRate   = decimal.RequireFromString("0.07")
	insuranceRate = decimal.RequireFromString("0.05")
	taxRate       = decimal.RequireFromString("0.02")
)

type Breakdown struct {
	Amount      decimal.Decimal `json:"amount"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	WelfareFund decimal.Decimal `json:"welfare_fund"`
	Insurance   decimal.Decimal `json:"insurance"`
	Tax         decimal.Decimal `json:"tax"`
	WorkerEarns decimal.Decimal `json:"worker_earns"`
}

// Split rounds each deduction to two places and gives the remainder to the
// worker, so the parts always add up to amount exactly.
func Split(amount float64) Breakdown {
	a := decimal.NewFromFloat(amount).Round(2)
	b := Breakdown{
		Amount:      a,
		PlatformFee: a.Mul(platformRate).Round(2),
		WelfareFund: a.Mul(welfareRate).Round(2),
		Insurance:   a.Mul(insuranceRate).Round(2),
		Tax:         a.Mul(taxRate).Round(2),
	}
	b.WorkerEarns = a.Sub(b.PlatformFee).Sub(b.WelfareFund).Sub(b.Insurance).Sub(b.Tax)
	return b
}

// Deductions is the sum of everything withheld from the worker.
func (b Breakdown) Deductions() decimal.Decimal {
	return b.PlatformFee.Add(b.WelfareFund).Add(b.Insurance).Add(b.Tax)
}

// WithdrawalFee is the 2% charged on a withdrawal request, with the net
// amount paid out.
func WithdrawalFee(amount float64) (fee, net float64) {
	a := decimal.NewFromFloat(amount).Round(2)
	f := a.Mul(decimal.RequireFromString("0.02")).Round(2)
	return f.InexactFloat64(), a.Sub(f).InexactFloat64()
}
