package policy

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced policy or beneficiary does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCardExists is returned when a policy is created with a card number
	// already held by another policy.
	ErrCardExists = errors.New("insurance card number already in use")
	// ErrNoIdentifier is returned when a NONE-category policy is created for a
	// patient without a primary identifier at the default location.
	ErrNoIdentifier = errors.New("patient has no primary identifier at the default location")
)

// InsurancePolicy is a patient's membership card with an insurer. It
// exclusively owns its beneficiary set; the owner is always the first
// beneficiary, with policy-id number equal to the card number.
type InsurancePolicy struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	OwnerID       uuid.UUID      `db:"owner_id" json:"owner_id"`
	InsuranceID   uuid.UUID      `db:"insurance_id" json:"insurance_id"`
	ThirdPartyID  *uuid.UUID     `db:"third_party_id" json:"third_party_id,omitempty"`
	CardNumber    string         `db:"card_number" json:"card_number"`
	CoverageStart time.Time      `db:"coverage_start" json:"coverage_start"`
	ExpiryDate    *time.Time     `db:"expiry_date" json:"expiry_date,omitempty"`
	Beneficiaries []*Beneficiary `json:"beneficiaries,omitempty"`
	Retired       bool           `db:"retired" json:"retired"`
	RetiredBy     *uuid.UUID     `db:"retired_by" json:"retired_by,omitempty"`
	RetiredDate   *time.Time     `db:"retired_date" json:"retired_date,omitempty"`
	RetireReason  *string        `db:"retire_reason" json:"retire_reason,omitempty"`
	CreatedBy     uuid.UUID      `db:"created_by" json:"created_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// Beneficiary is a patient covered under a policy, identified by a policy-id
// number unique within the policy.
type Beneficiary struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PolicyID       uuid.UUID  `db:"policy_id" json:"policy_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PolicyIDNumber string     `db:"policy_id_number" json:"policy_id_number"`
	Retired        bool       `db:"retired" json:"retired"`
	RetiredBy      *uuid.UUID `db:"retired_by" json:"retired_by,omitempty"`
	RetiredDate    *time.Time `db:"retired_date" json:"retired_date,omitempty"`
	RetireReason   *string    `db:"retire_reason" json:"retire_reason,omitempty"`
	CreatedBy      uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// PolicySummary is the compact listing row for a patient's policies.
type PolicySummary struct {
	PolicyID      uuid.UUID `db:"policy_id" json:"policy_id"`
	InsuranceName string    `db:"insurance_name" json:"insurance_name"`
	CardNumber    string    `db:"card_number" json:"card_number"`
}
