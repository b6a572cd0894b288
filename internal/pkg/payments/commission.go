package payments

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TenantCommissionConfig is the read-only commission input resolved per
// tenant. The pipeline never writes it.
type TenantCommissionConfig struct {
	TenantID          uint
	CommissionPercent decimal.Decimal
	IsActive          bool
}

// CommissionResult pins the amount and the exact rate used at calculation
// time. Tenant rates may change later; bookings keep the rate that was
// actually applied.
type CommissionResult struct {
	AmountMinorUnits int64
	Percent          decimal.Decimal
}

var errNegativeBookingTotal = errors.New("booking total must not be negative")

var oneHundred = decimal.NewFromInt(100)

// CalculateCommission computes the platform cut of a booking total.
//
// The amount is ceil(total * percent / 100): partial minor units always round
// up to the platform's favor. This rounding rule is a deliberate business
// policy; do not change it to half-up or floor.
//
// Provider-imposed fee bounds (minimum/maximum platform fees) are not
// enforced here. They belong to the adapter that submits a fee to that
// provider, so one provider's limits never alter the business commission.
func CalculateCommission(totalMinorUnits int64, cfg TenantCommissionConfig) (CommissionResult, error) {
	if !cfg.IsActive {
		return CommissionResult{}, fmt.Errorf("%w: tenant %d is inactive", ErrInvalidCommissionConfig, cfg.TenantID)
	}
	if cfg.CommissionPercent.IsNegative() || cfg.CommissionPercent.GreaterThan(oneHundred) {
		return CommissionResult{}, fmt.Errorf("%w: percent %s out of range", ErrInvalidCommissionConfig, cfg.CommissionPercent)
	}
	if totalMinorUnits < 0 {
		return CommissionResult{}, errNegativeBookingTotal
	}

	amount := decimal.NewFromInt(totalMinorUnits).
		Mul(cfg.CommissionPercent).
		Div(oneHundred).
		Ceil().
		IntPart()

	return CommissionResult{
		AmountMinorUnits: amount,
		Percent:          cfg.CommissionPercent,
	}, nil
}
