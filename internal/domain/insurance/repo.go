package insurance

import (
	"context"

	"github.com/google/uuid"
)

// InsuranceRepository loads and stores insurances with their full rate
// history. GetByID returns the rate history ordered by start date.
type InsuranceRepository interface {
	Create(ctx context.Context, ins *Insurance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Insurance, error)
	Update(ctx context.Context, ins *Insurance) error
	List(ctx context.Context, voided bool, limit, offset int) ([]*Insurance, int, error)
	// Rates
	AddRate(ctx context.Context, r *InsuranceRate) error
	UpdateRate(ctx context.Context, r *InsuranceRate) error
}

type ThirdPartyRepository interface {
	Create(ctx context.Context, tp *ThirdParty) error
	GetByID(ctx context.Context, id uuid.UUID) (*ThirdParty, error)
	Update(ctx context.Context, tp *ThirdParty) error
	List(ctx context.Context, limit, offset int) ([]*ThirdParty, int, error)
}
