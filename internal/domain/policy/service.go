package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediclaim/mediclaim/internal/domain/insurance"
)

// InsuranceSource is the slice of the insurance service the policy workflow
// needs. Satisfied by *insurance.Service.
type InsuranceSource interface {
	GetInsurance(ctx context.Context, id uuid.UUID) (*insurance.Insurance, error)
}

type Service struct {
	policies    PolicyRepository
	insurances  InsuranceSource
	identifiers IdentifierSource
}

func NewService(policies PolicyRepository, insurances InsuranceSource, identifiers IdentifierSource) *Service {
	return &Service{policies: policies, insurances: insurances, identifiers: identifiers}
}

// CreatePolicy registers a policy and enrolls the owner as its first
// beneficiary, whose policy-id number equals the card number. For a
// NONE-category insurance the card number is taken from the owner's primary
// patient identifier and coverage starts immediately.
func (s *Service) CreatePolicy(ctx context.Context, actor uuid.UUID, p *InsurancePolicy) error {
	if p.OwnerID == uuid.Nil {
		return fmt.Errorf("policy owner is required")
	}
	ins, err := s.insurances.GetInsurance(ctx, p.InsuranceID)
	if err != nil {
		return fmt.Errorf("policy insurance: %w", err)
	}
	if ins.Voided {
		return fmt.Errorf("insurance %s is voided", ins.Name)
	}

	if ins.Category == insurance.CategoryNone {
		identifier, err := s.identifiers.PrimaryIdentifier(ctx, p.OwnerID)
		if err != nil {
			return err
		}
		p.CardNumber = identifier
		p.CoverageStart = time.Now()
	} else {
		if p.CardNumber == "" {
			return fmt.Errorf("insurance card number is required")
		}
		if p.CoverageStart.IsZero() {
			return fmt.Errorf("coverage start date is required")
		}
	}

	if _, err := s.policies.GetByCardNumber(ctx, p.CardNumber); err == nil {
		return fmt.Errorf("card %s: %w", p.CardNumber, ErrCardExists)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	p.CreatedBy = actor
	if err := s.policies.Create(ctx, p); err != nil {
		return err
	}

	owner := &Beneficiary{
		PolicyID:       p.ID,
		PatientID:      p.OwnerID,
		PolicyIDNumber: p.CardNumber,
		CreatedBy:      actor,
	}
	if err := s.policies.AddBeneficiary(ctx, owner); err != nil {
		return err
	}
	p.Beneficiaries = append(p.Beneficiaries, owner)
	return nil
}

// AddBeneficiary enrolls a dependent on an existing policy. The policy-id
// number must be unique within the policy.
func (s *Service) AddBeneficiary(ctx context.Context, actor uuid.UUID, policyID uuid.UUID, b *Beneficiary) error {
	p, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return err
	}
	if b.PolicyIDNumber == "" {
		return fmt.Errorf("policy-id number is required")
	}
	for _, existing := range p.Beneficiaries {
		if existing.PolicyIDNumber == b.PolicyIDNumber {
			return fmt.Errorf("policy-id number %s is already assigned on this policy", b.PolicyIDNumber)
		}
	}
	b.PolicyID = p.ID
	b.CreatedBy = actor
	if err := s.policies.AddBeneficiary(ctx, b); err != nil {
		return err
	}
	p.Beneficiaries = append(p.Beneficiaries, b)
	return nil
}

// RetirePolicy retires a policy and all of its active beneficiaries.
func (s *Service) RetirePolicy(ctx context.Context, actor uuid.UUID, id uuid.UUID, reason string) error {
	p, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Retired {
		return nil
	}
	if reason == "" {
		reason = "no reason provided"
	}
	now := time.Now()
	p.Retired = true
	p.RetiredBy = &actor
	p.RetiredDate = &now
	p.RetireReason = &reason

	cascade := fmt.Sprintf("the policy with card %s has been retired", p.CardNumber)
	for _, b := range p.Beneficiaries {
		if b.Retired {
			continue
		}
		b.Retired = true
		b.RetiredBy = &actor
		b.RetiredDate = &now
		b.RetireReason = &cascade
		if err := s.policies.UpdateBeneficiary(ctx, b); err != nil {
			return err
		}
	}
	return s.policies.Update(ctx, p)
}

func (s *Service) GetPolicy(ctx context.Context, id uuid.UUID) (*InsurancePolicy, error) {
	return s.policies.GetByID(ctx, id)
}

// PolicyByCardNumber looks a policy up by its insurance card number.
func (s *Service) PolicyByCardNumber(ctx context.Context, cardNumber string) (*InsurancePolicy, error) {
	return s.policies.GetByCardNumber(ctx, cardNumber)
}

// CardNumberExists reports whether any policy holds the card number.
func (s *Service) CardNumberExists(ctx context.Context, cardNumber string) (bool, error) {
	_, err := s.policies.GetByCardNumber(ctx, cardNumber)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BeneficiaryByPolicyNumber resolves a beneficiary by policy-id number. A card
// number also matches, it being the owner's policy-id number.
func (s *Service) BeneficiaryByPolicyNumber(ctx context.Context, policyIDNumber string) (*Beneficiary, error) {
	return s.policies.BeneficiaryByPolicyNumber(ctx, policyIDNumber)
}

// PoliciesByPatient lists the policies covering a patient as owner or dependent.
func (s *Service) PoliciesByPatient(ctx context.Context, patientID uuid.UUID) ([]*PolicySummary, error) {
	return s.policies.ListByPatient(ctx, patientID)
}

func (s *Service) ListPolicies(ctx context.Context, limit, offset int) ([]*InsurancePolicy, int, error) {
	return s.policies.List(ctx, limit, offset)
}
