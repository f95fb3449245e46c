package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvaluateStatus_FullyPaid(t *testing.T) {
	res := EvaluateStatus(StatusInput{
		Amount:        dec("1000"),
		AmountPaid:    dec("200"),
		InsuranceRate: dec("80"),
	})
	if res.Status != StatusFullyPaid {
		t.Errorf("expected FULLY_PAID, got %s", res.Status)
	}
	if !res.IsPaid {
		t.Error("expected paid flag set")
	}
	if !res.AmountDueByPatient.Equal(dec("200")) {
		t.Errorf("expected due 200, got %s", res.AmountDueByPatient)
	}
}

func TestEvaluateStatus_PartlyPaid(t *testing.T) {
	res := EvaluateStatus(StatusInput{
		Amount:        dec("1000"),
		AmountPaid:    dec("100"),
		InsuranceRate: dec("80"),
	})
	if res.Status != StatusPartlyPaid {
		t.Errorf("expected PARTLY_PAID, got %s", res.Status)
	}
	// The first rule already fired, so the flag stays set even though the
	// status was overwritten afterwards.
	if !res.IsPaid {
		t.Error("expected paid flag set alongside PARTLY_PAID")
	}
	if !res.AmountNotPaid.Equal(dec("100")) {
		t.Errorf("expected 100 outstanding, got %s", res.AmountNotPaid)
	}
}

func TestEvaluateStatus_Unpaid(t *testing.T) {
	res := EvaluateStatus(StatusInput{
		Amount:        dec("1000"),
		AmountPaid:    decimal.Zero,
		InsuranceRate: dec("80"),
	})
	if res.Status != StatusUnpaid {
		t.Errorf("expected UNPAID, got %s", res.Status)
	}
	if !res.IsPaid {
		t.Error("expected paid flag set alongside UNPAID")
	}
}

func TestEvaluateStatus_Overpayment(t *testing.T) {
	res := EvaluateStatus(StatusInput{
		Amount:        dec("1000"),
		AmountPaid:    dec("250"),
		InsuranceRate: dec("80"),
	})
	if res.Status != StatusFullyPaid {
		t.Errorf("expected FULLY_PAID, got %s", res.Status)
	}
	if !res.Rest.Equal(dec("50")) {
		t.Errorf("expected rest 50, got %s", res.Rest)
	}
}

func TestEvaluateStatus_ToleranceBoundary(t *testing.T) {
	// 1 unit outstanding is inside the rounding guard and keeps FULLY_PAID.
	res := EvaluateStatus(StatusInput{
		Amount:        dec("1000"),
		AmountPaid:    dec("199"),
		InsuranceRate: dec("80"),
	})
	if res.Status != StatusFullyPaid {
		t.Errorf("expected FULLY_PAID at 1 outstanding, got %s", res.Status)
	}

	// 2 units outstanding is past the guard.
	res = EvaluateStatus(StatusInput{
		Amount:        dec("1000"),
		AmountPaid:    dec("198"),
		InsuranceRate: dec("80"),
	})
	if res.Status != StatusPartlyPaid {
		t.Errorf("expected PARTLY_PAID at 2 outstanding, got %s", res.Status)
	}
}

func TestEvaluateStatus_ThirdParty(t *testing.T) {
	tp := dec("10")
	res := EvaluateStatus(StatusInput{
		Amount:         dec("1000"),
		AmountPaid:     decimal.Zero,
		InsuranceRate:  dec("80"),
		ThirdPartyRate: &tp,
	})
	// Patient share 200, third party covers 100 of it.
	if !res.AmountDueByPatient.Equal(dec("100")) {
		t.Errorf("expected due 100, got %s", res.AmountDueByPatient)
	}
	// The formula subtracts the third-party share a second time inside the
	// outstanding amount, so zero payments already read as settled.
	if !res.AmountNotPaid.Equal(dec("0")) {
		t.Errorf("expected outstanding 0, got %s", res.AmountNotPaid)
	}
	if res.Status != StatusFullyPaid {
		t.Errorf("expected FULLY_PAID, got %s", res.Status)
	}
}

func TestEvaluateStatus_ThirdPartyWithPayment(t *testing.T) {
	tp := dec("10")
	res := EvaluateStatus(StatusInput{
		Amount:         dec("1000"),
		AmountPaid:     dec("100"),
		InsuranceRate:  dec("80"),
		ThirdPartyRate: &tp,
	})
	if res.Status != StatusFullyPaid {
		t.Errorf("expected FULLY_PAID, got %s", res.Status)
	}
	if !res.Rest.Equal(dec("0")) {
		t.Errorf("expected rest 0, got %s", res.Rest)
	}
}

func TestEvaluateStatus_ZeroRate(t *testing.T) {
	res := EvaluateStatus(StatusInput{
		Amount:        dec("500"),
		AmountPaid:    dec("500"),
		InsuranceRate: decimal.Zero,
	})
	if res.Status != StatusFullyPaid {
		t.Errorf("expected FULLY_PAID, got %s", res.Status)
	}
	if !res.AmountDueByPatient.Equal(dec("500")) {
		t.Errorf("expected due 500, got %s", res.AmountDueByPatient)
	}
}

func TestEvaluateStatus_FullCoverage(t *testing.T) {
	res := EvaluateStatus(StatusInput{
		Amount:        dec("500"),
		AmountPaid:    decimal.Zero,
		InsuranceRate: dec("100"),
	})
	// Nothing due from the patient; rule two still rewrites the status
	// because zero outstanding equals zero due.
	if res.Status != StatusUnpaid {
		t.Errorf("expected UNPAID, got %s", res.Status)
	}
	if !res.IsPaid {
		t.Error("expected paid flag set")
	}
}
