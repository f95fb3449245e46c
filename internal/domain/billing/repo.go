package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillRepository loads and stores bills with their full line-item and payment
// sets.
type BillRepository interface {
	Create(ctx context.Context, pb *PatientBill) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientBill, error)
	Update(ctx context.Context, pb *PatientBill) error
	ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, limit, offset int) ([]*PatientBill, int, error)
	ListByPeriod(ctx context.Context, start, end time.Time, limit, offset int) ([]*PatientBill, int, error)
	// RefundedBills returns the bills carrying at least one non-voided
	// negative payment in the period, optionally filtered by collector.
	RefundedBills(ctx context.Context, start, end time.Time, collector *uuid.UUID) ([]*PatientBill, error)
	// Payments
	AddPayment(ctx context.Context, p *BillPayment) error
	UpdatePayment(ctx context.Context, p *BillPayment) error
	// InTx runs fn inside one transaction; repository calls made with the
	// ctx passed to fn share it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
