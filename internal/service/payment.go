package service

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/tiffinly/api/internal/enum"
)

// Errors returned by the payment fee calculator.
var (
	ErrUnknownMethod = errors.New("unknown payment method")
)

var (
	// ONLINE_GATEWAY adds the processor's 4% surcharge.
	gatewayMultiplier = decimal.NewFromFloat(1.04)
	// DIRECT_TRANSFER carries a flat discount for skipping the processor.
	transferDiscount = decimal.NewFromInt(10)
)

// FinalAmount applies the fee policy of the chosen payment method to the
// order total. The result never goes below zero.
func FinalAmount(method string, total decimal.Decimal) (decimal.Decimal, error) {
	switch method {
	case enum.PaymentMethodCashOnDelivery:
		return total, nil
	case enum.PaymentMethodOnlineGateway:
		return total.Mul(gatewayMultiplier), nil
	case enum.PaymentMethodDirectTransfer:
		final := total.Sub(transferDiscount)
		if final.IsNegative() {
			final = decimal.Zero
		}
		return final, nil
	}
	return decimal.Zero, ErrUnknownMethod
}
