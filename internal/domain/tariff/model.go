package tariff

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a referenced catalog entry does not exist.
var ErrNotFound = errors.New("not found")

// FacilityServicePrice is a billable catalog item. Its category is a free-form
// string matched against the invoice taxonomy; its full price is the anchor
// every per-insurance maxima is derived from. It exclusively owns its
// BillableService set, one per insurance.
type FacilityServicePrice struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	Name         string             `db:"name" json:"name"`
	Category     string             `db:"category" json:"category"`
	FullPrice    decimal.Decimal    `db:"full_price" json:"full_price"`
	StartDate    time.Time          `db:"start_date" json:"start_date"`
	EndDate      *time.Time         `db:"end_date" json:"end_date,omitempty"`
	Services     []*BillableService `json:"services,omitempty"`
	Retired      bool               `db:"retired" json:"retired"`
	RetiredBy    *uuid.UUID         `db:"retired_by" json:"retired_by,omitempty"`
	RetiredDate  *time.Time         `db:"retired_date" json:"retired_date,omitempty"`
	RetireReason *string            `db:"retire_reason" json:"retire_reason,omitempty"`
	CreatedBy    uuid.UUID          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}

// BillableService carries the maxima-to-pay for one facility service under
// one insurance.
type BillableService struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	FacilityServiceID uuid.UUID       `db:"facility_service_id" json:"facility_service_id"`
	InsuranceID       uuid.UUID       `db:"insurance_id" json:"insurance_id"`
	MaximaToPay       decimal.Decimal `db:"maxima_to_pay" json:"maxima_to_pay"`
	StartDate         time.Time       `db:"start_date" json:"start_date"`
	EndDate           *time.Time      `db:"end_date" json:"end_date,omitempty"`
	Retired           bool            `db:"retired" json:"retired"`
	RetiredBy         *uuid.UUID      `db:"retired_by" json:"retired_by,omitempty"`
	RetiredDate       *time.Time      `db:"retired_date" json:"retired_date,omitempty"`
	RetireReason      *string         `db:"retire_reason" json:"retire_reason,omitempty"`
	CreatedBy         uuid.UUID       `db:"created_by" json:"created_by"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// ServiceForInsurance returns the non-retired billable service for the given
// insurance, or nil when none has been derived yet.
func (fsp *FacilityServicePrice) ServiceForInsurance(insuranceID uuid.UUID) *BillableService {
	for _, bs := range fsp.Services {
		if bs.InsuranceID == insuranceID && !bs.Retired {
			return bs
		}
	}
	return nil
}
