package insurance

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Well-known insurance categories. The category is stored as free text so
// facility-specific schemes can be added without a code change; pricing only
// gives special treatment to these four.
const (
	CategoryBase     = "BASE"
	CategoryMutuelle = "MUTUELLE"
	CategoryPrivate  = "PRIVATE"
	CategoryNone     = "NONE"
)

// ErrNoCurrentRate is returned when an insurance has no resolvable rate.
// Callers computing a bill split must treat this as fatal to the operation;
// callers pricing a catalog entry fall back to the full price.
var ErrNoCurrentRate = errors.New("insurance has no current rate")

// ErrNotFound is returned when a referenced insurance or third party does not exist.
var ErrNotFound = errors.New("not found")

// Insurance maps to the insurance table. It exclusively owns its rate history.
type Insurance struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	Category   string           `db:"category" json:"category"`
	Address    *string          `db:"address" json:"address,omitempty"`
	Phone      *string          `db:"phone" json:"phone,omitempty"`
	Rates      []*InsuranceRate `json:"rates,omitempty"`
	Voided     bool             `db:"voided" json:"voided"`
	VoidedBy   *uuid.UUID       `db:"voided_by" json:"voided_by,omitempty"`
	VoidedDate *time.Time       `db:"voided_date" json:"voided_date,omitempty"`
	VoidReason *string          `db:"void_reason" json:"void_reason,omitempty"`
	CreatedBy  uuid.UUID        `db:"created_by" json:"created_by"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// InsuranceRate is one entry in an insurance's rate history. At most one rate
// is active (non-retired) at any time; activating a successor retires it.
type InsuranceRate struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	InsuranceID  uuid.UUID        `db:"insurance_id" json:"insurance_id"`
	Rate         decimal.Decimal  `db:"rate" json:"rate"`
	FlatFee      *decimal.Decimal `db:"flat_fee" json:"flat_fee,omitempty"`
	StartDate    time.Time        `db:"start_date" json:"start_date"`
	EndDate      *time.Time       `db:"end_date" json:"end_date,omitempty"`
	Retired      bool             `db:"retired" json:"retired"`
	RetiredBy    *uuid.UUID       `db:"retired_by" json:"retired_by,omitempty"`
	RetiredDate  *time.Time       `db:"retired_date" json:"retired_date,omitempty"`
	RetireReason *string          `db:"retire_reason" json:"retire_reason,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// ThirdParty is a secondary payer (an employer, typically) covering a fixed
// percentage of a bill alongside the primary insurer.
type ThirdParty struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Rate       decimal.Decimal `db:"rate" json:"rate"`
	Voided     bool            `db:"voided" json:"voided"`
	VoidedBy   *uuid.UUID      `db:"voided_by" json:"voided_by,omitempty"`
	VoidedDate *time.Time      `db:"voided_date" json:"voided_date,omitempty"`
	VoidReason *string         `db:"void_reason" json:"void_reason,omitempty"`
	CreatedBy  uuid.UUID       `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// CurrentRate returns the single non-retired rate in the loaded history, or
// ErrNoCurrentRate when none exists.
func (ins *Insurance) CurrentRate() (*InsuranceRate, error) {
	for _, r := range ins.Rates {
		if !r.Retired {
			return r, nil
		}
	}
	return nil, ErrNoCurrentRate
}

// RateOnDate returns the rate whose validity window contains date. When no
// window matches it falls back to the closest rate that started before date;
// when no rate started before date it returns ErrNoCurrentRate. Used for
// historical reporting.
func (ins *Insurance) RateOnDate(date time.Time) (*InsuranceRate, error) {
	var closest *InsuranceRate
	for _, r := range ins.Rates {
		if r.StartDate.After(date) {
			continue
		}
		if r.EndDate == nil || !date.After(*r.EndDate) {
			return r, nil
		}
		if closest == nil || r.StartDate.After(closest.StartDate) {
			closest = r
		}
	}
	if closest != nil {
		return closest, nil
	}
	return nil, ErrNoCurrentRate
}
