package policy

import (
	"context"

	"github.com/google/uuid"
)

// PolicyRepository loads and stores policies with their beneficiary set.
type PolicyRepository interface {
	Create(ctx context.Context, p *InsurancePolicy) error
	GetByID(ctx context.Context, id uuid.UUID) (*InsurancePolicy, error)
	GetByCardNumber(ctx context.Context, cardNumber string) (*InsurancePolicy, error)
	Update(ctx context.Context, p *InsurancePolicy) error
	List(ctx context.Context, limit, offset int) ([]*InsurancePolicy, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PolicySummary, error)
	// Beneficiaries
	AddBeneficiary(ctx context.Context, b *Beneficiary) error
	UpdateBeneficiary(ctx context.Context, b *Beneficiary) error
	BeneficiaryByPolicyNumber(ctx context.Context, policyIDNumber string) (*Beneficiary, error)
}

// IdentifierSource resolves a patient's primary identifier at the facility's
// default location. Backed by the configured identifier type and location;
// returns config.ErrNotConfigured when either is unset, ErrNoIdentifier when
// the patient has no matching identifier.
type IdentifierSource interface {
	PrimaryIdentifier(ctx context.Context, patientID uuid.UUID) (string, error)
}
