package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPatientBill_AmountPaid(t *testing.T) {
	pb := &PatientBill{Payments: []*BillPayment{
		{AmountPaid: dec("100")},
		{AmountPaid: dec("50")},
		{AmountPaid: dec("200"), Voided: true},
		{AmountPaid: dec("-30")},
	}}
	if got := pb.AmountPaid(); !got.Equal(dec("120")) {
		t.Errorf("expected 120, got %s", got)
	}
}

func TestPatientBill_AmountPaid_Empty(t *testing.T) {
	pb := &PatientBill{}
	if got := pb.AmountPaid(); !got.Equal(decimal.Zero) {
		t.Errorf("expected zero, got %s", got)
	}
}

func TestPatientBill_ItemsTotal(t *testing.T) {
	voided := item("Annule", "CONSULTATION", "1", "999")
	voided.Voided = true
	pb := &PatientBill{Items: []*PatientServiceBill{
		item("Consultation", "CONSULTATION", "2", "100"),
		item("Paracetamol", "MEDICAMENTS", "10", "5"),
		voided,
	}}
	if got := pb.ItemsTotal(); !got.Equal(dec("250")) {
		t.Errorf("expected 250, got %s", got)
	}
}

func TestPatientServiceBill_Cost(t *testing.T) {
	it := item("NFS", "LABORATOIRE", "3", "12.5")
	if got := it.Cost(); !got.Equal(dec("37.5")) {
		t.Errorf("expected 37.5, got %s", got)
	}
}
