package insurance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediclaim/mediclaim/pkg/money"
)

type Service struct {
	insurances   InsuranceRepository
	thirdParties ThirdPartyRepository
}

func NewService(ins InsuranceRepository, tp ThirdPartyRepository) *Service {
	return &Service{insurances: ins, thirdParties: tp}
}

// CreateInsurance creates an insurance, optionally with its initial rate.
func (s *Service) CreateInsurance(ctx context.Context, ins *Insurance, rate *InsuranceRate) error {
	if ins.Name == "" {
		return fmt.Errorf("insurance name is required")
	}
	if ins.Category == "" {
		return fmt.Errorf("insurance category is required")
	}
	if rate != nil && !money.ValidRate(rate.Rate) {
		return fmt.Errorf("insurance rate must be between 0 and 100, got %s", rate.Rate.String())
	}
	if err := s.insurances.Create(ctx, ins); err != nil {
		return err
	}
	if rate != nil {
		rate.InsuranceID = ins.ID
		if err := s.insurances.AddRate(ctx, rate); err != nil {
			return err
		}
		ins.Rates = append(ins.Rates, rate)
	}
	return nil
}

// SetRate activates a new rate for an insurance. The previously active rate,
// if any, is retired first with a reason linking it to its successor.
func (s *Service) SetRate(ctx context.Context, actor uuid.UUID, insuranceID uuid.UUID, rate *InsuranceRate) error {
	if !money.ValidRate(rate.Rate) {
		return fmt.Errorf("insurance rate must be between 0 and 100, got %s", rate.Rate.String())
	}
	ins, err := s.insurances.GetByID(ctx, insuranceID)
	if err != nil {
		return err
	}

	if current, err := ins.CurrentRate(); err == nil {
		reason := fmt.Sprintf("a new rate of %s%% takes effect", rate.Rate.String())
		if rate.FlatFee != nil {
			reason = fmt.Sprintf("a new rate of %s%% with flat fee %s takes effect",
				rate.Rate.String(), rate.FlatFee.String())
		}
		if err := s.retireRate(ctx, actor, current, rate.StartDate, reason); err != nil {
			return err
		}
	}

	rate.InsuranceID = ins.ID
	return s.insurances.AddRate(ctx, rate)
}

// RetireRate retires a single rate with the given reason.
func (s *Service) RetireRate(ctx context.Context, actor uuid.UUID, insuranceID, rateID uuid.UUID, reason string) error {
	ins, err := s.insurances.GetByID(ctx, insuranceID)
	if err != nil {
		return err
	}
	for _, r := range ins.Rates {
		if r.ID == rateID {
			if reason == "" {
				reason = "no reason provided"
			}
			return s.retireRate(ctx, actor, r, time.Now(), reason)
		}
	}
	return fmt.Errorf("rate %s: %w", rateID, ErrNotFound)
}

func (s *Service) retireRate(ctx context.Context, actor uuid.UUID, r *InsuranceRate, endDate time.Time, reason string) error {
	now := time.Now()
	r.Retired = true
	r.RetiredBy = &actor
	r.RetiredDate = &now
	r.EndDate = &endDate
	r.RetireReason = &reason
	return s.insurances.UpdateRate(ctx, r)
}

// VoidInsurance voids an insurance and retires all of its active rates.
// Voiding an already-voided insurance is a no-op.
func (s *Service) VoidInsurance(ctx context.Context, actor uuid.UUID, id uuid.UUID, reason string) error {
	ins, err := s.insurances.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ins.Voided {
		return nil
	}

	now := time.Now()
	ins.Voided = true
	ins.VoidedBy = &actor
	ins.VoidedDate = &now
	ins.VoidReason = &reason

	cascade := fmt.Sprintf("the insurance %s has been voided", ins.Name)
	for _, r := range ins.Rates {
		if !r.Retired {
			if err := s.retireRate(ctx, actor, r, now, cascade); err != nil {
				return err
			}
		}
	}
	return s.insurances.Update(ctx, ins)
}

func (s *Service) GetInsurance(ctx context.Context, id uuid.UUID) (*Insurance, error) {
	return s.insurances.GetByID(ctx, id)
}

// ListInsurances returns insurances filtered on the voided flag.
func (s *Service) ListInsurances(ctx context.Context, voided bool, limit, offset int) ([]*Insurance, int, error) {
	return s.insurances.List(ctx, voided, limit, offset)
}

// CurrentRate resolves the active rate of an insurance.
func (s *Service) CurrentRate(ctx context.Context, insuranceID uuid.UUID) (*InsuranceRate, error) {
	ins, err := s.insurances.GetByID(ctx, insuranceID)
	if err != nil {
		return nil, err
	}
	return ins.CurrentRate()
}

// RateOnDate resolves the rate applicable on a historical date.
func (s *Service) RateOnDate(ctx context.Context, insuranceID uuid.UUID, date time.Time) (*InsuranceRate, error) {
	ins, err := s.insurances.GetByID(ctx, insuranceID)
	if err != nil {
		return nil, err
	}
	return ins.RateOnDate(date)
}

// -- Third parties --

func (s *Service) CreateThirdParty(ctx context.Context, tp *ThirdParty) error {
	if tp.Name == "" {
		return fmt.Errorf("third party name is required")
	}
	if !money.ValidRate(tp.Rate) {
		return fmt.Errorf("third party rate must be between 0 and 100, got %s", tp.Rate.String())
	}
	return s.thirdParties.Create(ctx, tp)
}

// VoidThirdParty voids a third party with a reason derived from its name.
func (s *Service) VoidThirdParty(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	tp, err := s.thirdParties.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tp.Voided {
		return nil
	}
	now := time.Now()
	reason := fmt.Sprintf("the third party %s is no longer in use", tp.Name)
	tp.Voided = true
	tp.VoidedBy = &actor
	tp.VoidedDate = &now
	tp.VoidReason = &reason
	return s.thirdParties.Update(ctx, tp)
}

func (s *Service) GetThirdParty(ctx context.Context, id uuid.UUID) (*ThirdParty, error) {
	return s.thirdParties.GetByID(ctx, id)
}

func (s *Service) ListThirdParties(ctx context.Context, limit, offset int) ([]*ThirdParty, int, error) {
	return s.thirdParties.List(ctx, limit, offset)
}
