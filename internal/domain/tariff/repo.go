package tariff

import (
	"context"

	"github.com/google/uuid"
)

// FacilityServiceRepository loads and stores catalog entries with their full
// billable-service set. GetByID returns the services ordered by start date.
type FacilityServiceRepository interface {
	Create(ctx context.Context, fsp *FacilityServicePrice) error
	GetByID(ctx context.Context, id uuid.UUID) (*FacilityServicePrice, error)
	Update(ctx context.Context, fsp *FacilityServicePrice) error
	List(ctx context.Context, retired bool, limit, offset int) ([]*FacilityServicePrice, int, error)
	// Billable services
	AddService(ctx context.Context, bs *BillableService) error
	UpdateService(ctx context.Context, bs *BillableService) error
	ServicesByInsurance(ctx context.Context, insuranceID uuid.UUID) ([]*BillableService, error)
}
