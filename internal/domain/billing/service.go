package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mediclaim/mediclaim/internal/domain/insurance"
)

// BeneficiaryRates is the coverage snapshot the status machine and invoice
// composer need for one beneficiary.
type BeneficiaryRates struct {
	InsuranceID    uuid.UUID
	InsuranceRate  decimal.Decimal
	ThirdPartyRate *decimal.Decimal
}

// RateSource resolves the insurance and third-party rates covering a
// beneficiary. Implementations return insurance.ErrNoCurrentRate when the
// insurance has no active rate; the service turns that into a
// MissingRateError.
type RateSource interface {
	Rates(ctx context.Context, beneficiaryID uuid.UUID) (*BeneficiaryRates, error)
}

type Service struct {
	bills BillRepository
	rates RateSource
}

func NewService(bills BillRepository, rates RateSource) *Service {
	return &Service{bills: bills, rates: rates}
}

// OpenBill creates a bill for a beneficiary. The bill amount is fixed here as
// the sum of the non-voided line items.
func (s *Service) OpenBill(ctx context.Context, actor uuid.UUID, beneficiaryID uuid.UUID, items []*PatientServiceBill) (*PatientBill, error) {
	if beneficiaryID == uuid.Nil {
		return nil, fmt.Errorf("bill beneficiary is required")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("a bill needs at least one line item")
	}
	for _, item := range items {
		if item.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("line item %s: quantity must be positive", item.ServiceName)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("line item %s: unit price must not be negative", item.ServiceName)
		}
		if item.ServiceDate.IsZero() {
			item.ServiceDate = time.Now()
		}
	}

	pb := &PatientBill{
		BeneficiaryID: beneficiaryID,
		Items:         items,
		Status:        StatusUnpaid,
		CreatedBy:     actor,
	}
	pb.Amount = pb.ItemsTotal()
	if err := s.bills.Create(ctx, pb); err != nil {
		return nil, err
	}
	return pb, nil
}

// RecordPayment appends a payment (negative for a refund) and re-evaluates
// the bill status against the freshly reloaded payment set, all in one
// transaction.
func (s *Service) RecordPayment(ctx context.Context, actor uuid.UUID, billID uuid.UUID, amount decimal.Decimal, dateReceived time.Time) (*PatientBill, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	if dateReceived.IsZero() {
		dateReceived = time.Now()
	}

	var updated *PatientBill
	err := s.bills.InTx(ctx, func(ctx context.Context) error {
		pb, err := s.bills.GetByID(ctx, billID)
		if err != nil {
			return err
		}
		payment := &BillPayment{
			BillID:       pb.ID,
			AmountPaid:   amount,
			DateReceived: dateReceived,
			CollectorID:  actor,
		}
		if err := s.bills.AddPayment(ctx, payment); err != nil {
			return err
		}
		// Reload so the evaluation sees the payment set as persisted.
		pb, err = s.bills.GetByID(ctx, billID)
		if err != nil {
			return err
		}
		if err := s.evaluate(ctx, pb); err != nil {
			return err
		}
		updated = pb
		return s.bills.Update(ctx, pb)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// EvaluateBill re-runs the status machine on a bill and persists the outcome.
func (s *Service) EvaluateBill(ctx context.Context, billID uuid.UUID) (*PatientBill, error) {
	pb, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := s.evaluate(ctx, pb); err != nil {
		return nil, err
	}
	return pb, s.bills.Update(ctx, pb)
}

func (s *Service) evaluate(ctx context.Context, pb *PatientBill) error {
	rates, err := s.resolveRates(ctx, pb.BeneficiaryID)
	if err != nil {
		return err
	}
	res := EvaluateStatus(StatusInput{
		Amount:         pb.Amount,
		AmountPaid:     pb.AmountPaid(),
		InsuranceRate:  rates.InsuranceRate,
		ThirdPartyRate: rates.ThirdPartyRate,
	})
	pb.Status = res.Status
	pb.IsPaid = res.IsPaid
	return nil
}

func (s *Service) resolveRates(ctx context.Context, beneficiaryID uuid.UUID) (*BeneficiaryRates, error) {
	rates, err := s.rates.Rates(ctx, beneficiaryID)
	if errors.Is(err, insurance.ErrNoCurrentRate) {
		var id uuid.UUID
		if rates != nil {
			id = rates.InsuranceID
		}
		return nil, &MissingRateError{InsuranceID: id}
	}
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// ComposeInvoice builds the presentation invoice for a bill under the
// beneficiary's current insurance rate.
func (s *Service) ComposeInvoice(ctx context.Context, billID uuid.UUID) (*PatientInvoice, error) {
	pb, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	rates, err := s.resolveRates(ctx, pb.BeneficiaryID)
	if err != nil {
		return nil, err
	}
	return ComposeInvoice(pb, rates.InsuranceRate), nil
}

// VoidPayment voids a payment and re-evaluates the bill.
func (s *Service) VoidPayment(ctx context.Context, actor uuid.UUID, billID, paymentID uuid.UUID, reason string) (*PatientBill, error) {
	if reason == "" {
		reason = "no reason provided"
	}
	var updated *PatientBill
	err := s.bills.InTx(ctx, func(ctx context.Context) error {
		pb, err := s.bills.GetByID(ctx, billID)
		if err != nil {
			return err
		}
		var payment *BillPayment
		for _, p := range pb.Payments {
			if p.ID == paymentID {
				payment = p
				break
			}
		}
		if payment == nil {
			return fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}
		now := time.Now()
		payment.Voided = true
		payment.VoidedBy = &actor
		payment.VoidedDate = &now
		payment.VoidReason = &reason
		if err := s.bills.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		if err := s.evaluate(ctx, pb); err != nil {
			return err
		}
		updated = pb
		return s.bills.Update(ctx, pb)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkPrinted flags the bill as printed.
func (s *Service) MarkPrinted(ctx context.Context, billID uuid.UUID) error {
	pb, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return err
	}
	pb.Printed = true
	return s.bills.Update(ctx, pb)
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*PatientBill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, limit, offset int) ([]*PatientBill, int, error) {
	return s.bills.ListByBeneficiary(ctx, beneficiaryID, limit, offset)
}

func (s *Service) ListByPeriod(ctx context.Context, start, end time.Time, limit, offset int) ([]*PatientBill, int, error) {
	return s.bills.ListByPeriod(ctx, start, end, limit, offset)
}

// TotalRefunded sums every non-voided negative payment across the bill set.
// The result is negative or zero, never positive; display layers apply the
// absolute value themselves.
func TotalRefunded(bills []*PatientBill) decimal.Decimal {
	total := decimal.Zero
	for _, pb := range bills {
		for _, p := range pb.Payments {
			if !p.Voided && p.AmountPaid.IsNegative() {
				total = total.Add(p.AmountPaid)
			}
		}
	}
	return total
}

// RefundReport lists the bills refunded during a period, with the aggregate
// refunded amount.
type RefundReport struct {
	Bills         []*PatientBill  `json:"bills"`
	TotalRefunded decimal.Decimal `json:"total_refunded"`
}

// RefundedBills builds the refund report for a period, optionally filtered by
// the collector who took the refunds.
func (s *Service) RefundedBills(ctx context.Context, start, end time.Time, collector *uuid.UUID) (*RefundReport, error) {
	bills, err := s.bills.RefundedBills(ctx, start, end, collector)
	if err != nil {
		return nil, err
	}
	return &RefundReport{Bills: bills, TotalRefunded: TotalRefunded(bills)}, nil
}
