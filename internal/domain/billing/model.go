package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill payment statuses. Stored as free text on the bill; only these three
// values are ever assigned.
const (
	StatusUnpaid     = "UNPAID"
	StatusPartlyPaid = "PARTLY_PAID"
	StatusFullyPaid  = "FULLY_PAID"
)

var (
	// ErrNotFound is returned when a referenced bill or payment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAmount is returned when a payment amount is absent or not a
	// number. The bill is left untouched.
	ErrInvalidAmount = errors.New("payment amount is missing or not a number")
)

// PatientBill is one billing episode for a beneficiary. It exclusively owns
// its line items and payments; the amount is fixed at opening time as the sum
// of the non-voided line items.
type PatientBill struct {
	ID            uuid.UUID             `db:"id" json:"id"`
	BeneficiaryID uuid.UUID             `db:"beneficiary_id" json:"beneficiary_id"`
	Amount        decimal.Decimal       `db:"amount" json:"amount"`
	IsPaid        bool                  `db:"is_paid" json:"is_paid"`
	Status        string                `db:"status" json:"status"`
	Printed       bool                  `db:"printed" json:"printed"`
	Items         []*PatientServiceBill `json:"items,omitempty"`
	Payments      []*BillPayment        `json:"payments,omitempty"`
	CreatedBy     uuid.UUID             `db:"created_by" json:"created_by"`
	CreatedAt     time.Time             `db:"created_at" json:"created_at"`
}

// AmountPaid sums the non-voided payments. Refunds are negative payments and
// reduce the sum.
func (pb *PatientBill) AmountPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range pb.Payments {
		if !p.Voided {
			total = total.Add(p.AmountPaid)
		}
	}
	return total
}

// ItemsTotal sums quantity times unit price over the non-voided line items.
func (pb *PatientBill) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range pb.Items {
		if !item.Voided {
			total = total.Add(item.Cost())
		}
	}
	return total
}

// PatientServiceBill is a single billed line item. ServiceName and
// ServiceCategory are carried from the referenced catalog entry so the
// invoice composer can group without extra lookups.
type PatientServiceBill struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	BillID          uuid.UUID       `db:"bill_id" json:"bill_id"`
	ServiceID       uuid.UUID       `db:"service_id" json:"service_id"`
	ServiceName     string          `db:"service_name" json:"service_name"`
	ServiceCategory string          `db:"service_category" json:"service_category"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	ServiceDate     time.Time       `db:"service_date" json:"service_date"`
	Voided          bool            `db:"voided" json:"voided"`
	VoidedBy        *uuid.UUID      `db:"voided_by" json:"voided_by,omitempty"`
	VoidedDate      *time.Time      `db:"voided_date" json:"voided_date,omitempty"`
	VoidReason      *string         `db:"void_reason" json:"void_reason,omitempty"`
}

// Cost is quantity times unit price.
func (item *PatientServiceBill) Cost() decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// BillPayment is one cash movement against a bill. A negative amount is a
// refund.
type BillPayment struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	BillID       uuid.UUID       `db:"bill_id" json:"bill_id"`
	AmountPaid   decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	DateReceived time.Time       `db:"date_received" json:"date_received"`
	CollectorID  uuid.UUID       `db:"collector_id" json:"collector_id"`
	Voided       bool            `db:"voided" json:"voided"`
	VoidedBy     *uuid.UUID      `db:"voided_by" json:"voided_by,omitempty"`
	VoidedDate   *time.Time      `db:"voided_date" json:"voided_date,omitempty"`
	VoidReason   *string         `db:"void_reason" json:"void_reason,omitempty"`
}
