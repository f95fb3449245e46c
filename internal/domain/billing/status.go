package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MissingRateError reports that a beneficiary's insurance has no resolvable
// current rate. Status evaluation and invoice composition must fail with it
// rather than proceed with a guessed rate.
type MissingRateError struct {
	InsuranceID uuid.UUID
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("insurance %s has no resolvable current rate", e.InsuranceID)
}

var hundred = decimal.NewFromInt(100)

// paymentTolerance is the 1-unit rounding guard of the original currency's
// minor unit.
var paymentTolerance = decimal.NewFromInt(1)

// StatusInput is everything the status machine reads: the bill total, the sum
// of non-voided payments, the insurance rate, and the optional third-party
// rate.
type StatusInput struct {
	Amount         decimal.Decimal
	AmountPaid     decimal.Decimal
	InsuranceRate  decimal.Decimal
	ThirdPartyRate *decimal.Decimal
}

// StatusResult carries the assigned status plus the intermediate scalars, for
// callers that display the patient's outstanding balance.
type StatusResult struct {
	Status             string
	IsPaid             bool
	AmountDueByPatient decimal.Decimal
	AmountNotPaid      decimal.Decimal
	Rest               decimal.Decimal
}

// EvaluateStatus runs the bill status machine.
//
// The three rules run in order and are not mutually exclusive: the first may
// set FULLY_PAID and the paid flag, and a later rule may still overwrite the
// status (never the flag). A bill can therefore end up flagged paid while its
// status reads UNPAID or PARTLY_PAID; downstream reporting relies on this
// long-standing behavior, so it is kept as is.
//
// In the third-party branch, the third-party share is subtracted from the
// amount due and then again inside amountNotPaid. That follows the historical
// formula and is preserved deliberately.
func EvaluateStatus(in StatusInput) StatusResult {
	patientRate := hundred.Sub(in.InsuranceRate).Div(hundred)
	amountDueByPatient := in.Amount.Mul(patientRate)

	var amountNotPaid decimal.Decimal
	if in.ThirdPartyRate != nil {
		amountPaidByThirdParty := in.Amount.Mul(in.ThirdPartyRate.Div(hundred))
		amountDueByPatient = amountDueByPatient.Sub(amountPaidByThirdParty)
		amountNotPaid = amountDueByPatient.Sub(amountPaidByThirdParty.Add(in.AmountPaid))
	} else {
		amountNotPaid = amountDueByPatient.Sub(in.AmountPaid)
	}

	rest := in.AmountPaid.Sub(amountDueByPatient)

	res := StatusResult{
		AmountDueByPatient: amountDueByPatient,
		AmountNotPaid:      amountNotPaid,
		Rest:               rest,
	}

	if in.AmountPaid.GreaterThanOrEqual(amountDueByPatient) || rest.LessThanOrEqual(paymentTolerance) {
		res.IsPaid = true
		res.Status = StatusFullyPaid
	}
	if amountNotPaid.Equal(amountDueByPatient) {
		res.Status = StatusUnpaid
	}
	if amountNotPaid.GreaterThan(paymentTolerance) && amountNotPaid.LessThan(amountDueByPatient) {
		res.Status = StatusPartlyPaid
	}

	return res
}
