package tariff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mediclaim/mediclaim/internal/domain/insurance"
)

// InsuranceSource is the slice of the insurance service the catalog needs for
// bulk maxima derivation. Satisfied by *insurance.Service.
type InsuranceSource interface {
	GetInsurance(ctx context.Context, id uuid.UUID) (*insurance.Insurance, error)
	ListInsurances(ctx context.Context, voided bool, limit, offset int) ([]*insurance.Insurance, int, error)
}

type Service struct {
	catalog    FacilityServiceRepository
	insurances InsuranceSource
	logger     zerolog.Logger
}

func NewService(catalog FacilityServiceRepository, insurances InsuranceSource, logger zerolog.Logger) *Service {
	return &Service{catalog: catalog, insurances: insurances, logger: logger}
}

// CreateFacilityService adds a catalog entry.
func (s *Service) CreateFacilityService(ctx context.Context, actor uuid.UUID, fsp *FacilityServicePrice) error {
	if fsp.Name == "" {
		return fmt.Errorf("facility service name is required")
	}
	if fsp.Category == "" {
		return fmt.Errorf("facility service category is required")
	}
	if fsp.FullPrice.IsNegative() {
		return fmt.Errorf("full price must not be negative, got %s", fsp.FullPrice)
	}
	if fsp.StartDate.IsZero() {
		fsp.StartDate = time.Now()
	}
	fsp.CreatedBy = actor
	return s.catalog.Create(ctx, fsp)
}

// UpdateFacilityService applies new catalog terms. Billable services priced
// against the old terms are retired so the maxima can be re-derived.
func (s *Service) UpdateFacilityService(ctx context.Context, actor uuid.UUID, fsp *FacilityServicePrice) error {
	existing, err := s.catalog.GetByID(ctx, fsp.ID)
	if err != nil {
		return err
	}
	if fsp.FullPrice.IsNegative() {
		return fmt.Errorf("full price must not be negative, got %s", fsp.FullPrice)
	}
	reason := "the facility service has changed"
	for _, bs := range existing.Services {
		if !bs.Retired {
			if err := s.retireService(ctx, actor, bs, fsp.StartDate, reason); err != nil {
				return err
			}
		}
	}
	return s.catalog.Update(ctx, fsp)
}

// RetireFacilityService retires a catalog entry and every non-retired billable
// service under it, each child carrying a reason naming the parent.
func (s *Service) RetireFacilityService(ctx context.Context, actor uuid.UUID, id uuid.UUID, retiredDate time.Time, reason string) error {
	fsp, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if retiredDate.IsZero() {
		retiredDate = time.Now()
	}
	if reason == "" {
		reason = "no reason provided"
	}

	cascade := fmt.Sprintf("the parent facility service %s was retired as well because '%s'", fsp.Name, reason)
	for _, bs := range fsp.Services {
		if !bs.Retired {
			if err := s.retireService(ctx, actor, bs, retiredDate, cascade); err != nil {
				return err
			}
		}
	}

	fsp.Retired = true
	fsp.RetiredBy = &actor
	fsp.RetiredDate = &retiredDate
	fsp.RetireReason = &reason
	return s.catalog.Update(ctx, fsp)
}

// RetireBillableService retires a single billable service.
func (s *Service) RetireBillableService(ctx context.Context, actor uuid.UUID, facilityServiceID, serviceID uuid.UUID, retiredDate time.Time, reason string) error {
	fsp, err := s.catalog.GetByID(ctx, facilityServiceID)
	if err != nil {
		return err
	}
	if retiredDate.IsZero() {
		retiredDate = time.Now()
	}
	if reason == "" {
		reason = "no reason provided"
	}
	for _, bs := range fsp.Services {
		if bs.ID == serviceID {
			return s.retireService(ctx, actor, bs, retiredDate, reason)
		}
	}
	return fmt.Errorf("billable service %s: %w", serviceID, ErrNotFound)
}

func (s *Service) retireService(ctx context.Context, actor uuid.UUID, bs *BillableService, retiredDate time.Time, reason string) error {
	bs.Retired = true
	bs.RetiredBy = &actor
	bs.RetiredDate = &retiredDate
	bs.RetireReason = &reason
	return s.catalog.UpdateService(ctx, bs)
}

// UpsertBillableService derives (or overrides) the maxima-to-pay for one
// facility service under one insurance. An explicit override is stored
// verbatim, never recomputed.
func (s *Service) UpsertBillableService(ctx context.Context, actor uuid.UUID, facilityServiceID, insuranceID uuid.UUID, startDate time.Time, override *decimal.Decimal) (*BillableService, error) {
	fsp, err := s.catalog.GetByID(ctx, facilityServiceID)
	if err != nil {
		return nil, err
	}
	ins, err := s.insurances.GetInsurance(ctx, insuranceID)
	if err != nil {
		return nil, err
	}
	return s.upsert(ctx, actor, fsp, ins, startDate, override)
}

func (s *Service) upsert(ctx context.Context, actor uuid.UUID, fsp *FacilityServicePrice, ins *insurance.Insurance, startDate time.Time, override *decimal.Decimal) (*BillableService, error) {
	maxima := MaximaToPay(fsp.Category, fsp.FullPrice, ins.Category)
	if override != nil {
		maxima = *override
	}
	if startDate.IsZero() {
		startDate = time.Now()
	}

	if bs := fsp.ServiceForInsurance(ins.ID); bs != nil {
		bs.MaximaToPay = maxima
		bs.StartDate = startDate
		return bs, s.catalog.UpdateService(ctx, bs)
	}

	bs := &BillableService{
		FacilityServiceID: fsp.ID,
		InsuranceID:       ins.ID,
		MaximaToPay:       maxima,
		StartDate:         startDate,
		CreatedBy:         actor,
	}
	if err := s.catalog.AddService(ctx, bs); err != nil {
		return nil, err
	}
	fsp.Services = append(fsp.Services, bs)
	return bs, nil
}

// RederiveAll re-derives the maxima of a facility service for every non-voided
// insurance. A failure on one insurance is logged and skipped so the rest of
// the batch still runs.
func (s *Service) RederiveAll(ctx context.Context, actor uuid.UUID, facilityServiceID uuid.UUID, startDate time.Time) error {
	fsp, err := s.catalog.GetByID(ctx, facilityServiceID)
	if err != nil {
		return err
	}

	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		insurances, total, err := s.insurances.ListInsurances(ctx, false, pageSize, offset)
		if err != nil {
			return err
		}
		for _, ins := range insurances {
			if _, err := s.upsert(ctx, actor, fsp, ins, startDate, nil); err != nil {
				s.logger.Error().Err(err).
					Str("facility_service", fsp.Name).
					Str("insurance", ins.Name).
					Msg("bulk maxima update failed for insurance")
			}
		}
		if offset+pageSize >= total {
			return nil
		}
	}
}

func (s *Service) GetFacilityService(ctx context.Context, id uuid.UUID) (*FacilityServicePrice, error) {
	return s.catalog.GetByID(ctx, id)
}

func (s *Service) ListFacilityServices(ctx context.Context, retired bool, limit, offset int) ([]*FacilityServicePrice, int, error) {
	return s.catalog.List(ctx, retired, limit, offset)
}

// ServicesByInsurance lists the billable services priced for one insurance.
func (s *Service) ServicesByInsurance(ctx context.Context, insuranceID uuid.UUID) ([]*BillableService, error) {
	return s.catalog.ServicesByInsurance(ctx, insuranceID)
}
