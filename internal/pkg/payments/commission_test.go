package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeConfig(percent string) TenantCommissionConfig {
	return TenantCommissionConfig{
		TenantID:          1,
		CommissionPercent: decimal.RequireFromString(percent),
		IsActive:          true,
	}
}

func TestCalculateCommission_CeilingRounding(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		percent string
		want    int64
	}{
		{name: "exact division", total: 10000, percent: "10", want: 1000},
		{name: "fraction rounds up", total: 9999, percent: "10", want: 1000},
		{name: "tiny amount rounds up to one", total: 1, percent: "0.5", want: 1},
		{name: "eight percent", total: 15000, percent: "8", want: 1200},
		{name: "zero percent", total: 10000, percent: "0", want: 0},
		{name: "full percent", total: 12345, percent: "100", want: 12345},
		{name: "zero total", total: 0, percent: "10", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateCommission(tt.total, activeConfig(tt.percent))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.AmountMinorUnits)
		})
	}
}

func TestCalculateCommission_Deterministic(t *testing.T) {
	cfg := activeConfig("7.33")
	first, err := CalculateCommission(99999, cfg)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := CalculateCommission(99999, cfg)
		require.NoError(t, err)
		assert.Equal(t, first.AmountMinorUnits, again.AmountMinorUnits)
	}
}

func TestCalculateCommission_InvalidConfig(t *testing.T) {
	_, err := CalculateCommission(10000, activeConfig("-1"))
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)

	_, err = CalculateCommission(10000, activeConfig("100.01"))
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)

	inactive := activeConfig("10")
	inactive.IsActive = false
	_, err = CalculateCommission(10000, inactive)
	assert.ErrorIs(t, err, ErrInvalidCommissionConfig)
}

func TestCalculateCommission_NegativeTotal(t *testing.T) {
	_, err := CalculateCommission(-1, activeConfig("10"))
	assert.Error(t, err)
}
