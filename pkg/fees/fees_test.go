package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   Breakdown
	}{
		{
			name:   "round amount",
			amount: 10000,
			want: Breakdown{
				Amount:      decimal.NewFromInt(10000),
				PlatformFee: decimal.NewFromInt(100),
				WelfareFund: decimal.NewFromInt(700),
				Insurance:   decimal.NewFromInt(500),
				Tax:         decimal.NewFromInt(200),
				WorkerEarns: decimal.NewFromInt(8500),
			},
		},
		{
			name:   "fractional amount",
			amount: 333.33,
			want: Breakdown{
				Amount:      decimal.RequireFromString("333.33"),
				PlatformFee: decimal.RequireFromString("3.33"),
				WelfareFund: decimal.RequireFromString("23.33"),
				Insurance:   decimal.RequireFromString("16.67"),
				Tax:         decimal.RequireFromString("6.67"),
				WorkerEarns: decimal.RequireFromString("283.33"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.amount)
			assert.True(t, tt.want.PlatformFee.Equal(got.PlatformFee), "platform %s", got.PlatformFee)
			assert.True(t, tt.want.WelfareFund.Equal(got.WelfareFund), "welfare %s", got.WelfareFund)
			assert.True(t, tt.want.Insurance.Equal(got.Insurance), "insurance %s", got.Insurance)
			assert.True(t, tt.want.Tax.Equal(got.Tax), "tax %s", got.Tax)
			assert.True(t, tt.want.WorkerEarns.Equal(got.WorkerEarns), "worker %s", got.WorkerEarns)
		})
	}
}

func TestSplit_PartsAddUp(t *testing.T) {
	for _, amount := range []float64{0, 0.01, 1, 99.99, 1234.56, 10000, 250000.75} {
		b := Split(amount)
		assert.True(t, b.Amount.Equal(b.Deductions().Add(b.WorkerEarns)), "amount %v", amount)
	}
}

func TestWithdrawalFee(t *testing.T) {
	fee, net := WithdrawalFee(5000)
	assert.Equal(t, 100.0, fee)
	assert.Equal(t, 4900.0, net)

	fee, net = WithdrawalFee(1234.5)
	assert.Equal(t, 24.69, fee)
	assert.Equal(t, 1209.81, net)
}
