package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mediclaim/mediclaim/internal/domain/insurance"
	"github.com/mediclaim/mediclaim/internal/platform/db"
)

type rateSourcePG struct{ pool *pgxpool.Pool }

// NewRateSource returns a RateSource that resolves a beneficiary's coverage
// through their policy: the policy's insurance supplies the current rate and
// the optional third party supplies its fixed share.
func NewRateSource(pool *pgxpool.Pool) RateSource {
	return &rateSourcePG{pool: pool}
}

func (r *rateSourcePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *rateSourcePG) Rates(ctx context.Context, beneficiaryID uuid.UUID) (*BeneficiaryRates, error) {
	q := r.conn(ctx)

	var insuranceID uuid.UUID
	var thirdPartyID *uuid.UUID
	err := q.QueryRow(ctx, `
		SELECT p.insurance_id, p.third_party_id
		FROM beneficiary b
		JOIN insurance_policy p ON p.id = b.policy_id
		WHERE b.id = $1 AND NOT b.retired`, beneficiaryID).
		Scan(&insuranceID, &thirdPartyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve coverage: %w", err)
	}

	rates := &BeneficiaryRates{InsuranceID: insuranceID}

	err = q.QueryRow(ctx, `
		SELECT rate FROM insurance_rate
		WHERE insurance_id = $1 AND NOT retired
		ORDER BY start_date DESC
		LIMIT 1`, insuranceID).
		Scan(&rates.InsuranceRate)
	if errors.Is(err, pgx.ErrNoRows) {
		// Return the partial snapshot so the caller can report which
		// insurance is missing a rate.
		return rates, insurance.ErrNoCurrentRate
	}
	if err != nil {
		return nil, fmt.Errorf("resolve insurance rate: %w", err)
	}

	if thirdPartyID != nil {
		var tpRate decimal.Decimal
		err = q.QueryRow(ctx, `
			SELECT rate FROM third_party
			WHERE id = $1 AND NOT voided`, *thirdPartyID).
			Scan(&tpRate)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("resolve third party rate: %w", err)
		}
		if err == nil {
			rates.ThirdPartyRate = &tpRate
		}
	}

	return rates, nil
}
