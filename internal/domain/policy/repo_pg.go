package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediclaim/mediclaim/internal/config"
	"github.com/mediclaim/mediclaim/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type policyRepoPG struct{ pool *pgxpool.Pool }

func NewPolicyRepo(pool *pgxpool.Pool) PolicyRepository { return &policyRepoPG{pool: pool} }

func (r *policyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const policyCols = `id, owner_id, insurance_id, third_party_id, card_number,
	coverage_start, expiry_date, retired, retired_by, retired_date, retire_reason,
	created_by, created_at`

func (r *policyRepoPG) scanPolicy(row pgx.Row) (*InsurancePolicy, error) {
	var p InsurancePolicy
	err := row.Scan(&p.ID, &p.OwnerID, &p.InsuranceID, &p.ThirdPartyID, &p.CardNumber,
		&p.CoverageStart, &p.ExpiryDate, &p.Retired, &p.RetiredBy, &p.RetiredDate,
		&p.RetireReason, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *policyRepoPG) Create(ctx context.Context, p *InsurancePolicy) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_policy (id, owner_id, insurance_id, third_party_id, card_number,
			coverage_start, expiry_date, retired, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.OwnerID, p.InsuranceID, p.ThirdPartyID, p.CardNumber,
		p.CoverageStart, p.ExpiryDate, p.Retired, p.CreatedBy)
	return err
}

func (r *policyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InsurancePolicy, error) {
	p, err := r.scanPolicy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+policyCols+` FROM insurance_policy WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if p.Beneficiaries, err = r.loadBeneficiaries(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *policyRepoPG) GetByCardNumber(ctx context.Context, cardNumber string) (*InsurancePolicy, error) {
	p, err := r.scanPolicy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+policyCols+` FROM insurance_policy WHERE card_number = $1`, cardNumber))
	if err != nil {
		return nil, err
	}
	if p.Beneficiaries, err = r.loadBeneficiaries(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *policyRepoPG) Update(ctx context.Context, p *InsurancePolicy) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_policy SET third_party_id=$2, card_number=$3, coverage_start=$4,
			expiry_date=$5, retired=$6, retired_by=$7, retired_date=$8, retire_reason=$9
		WHERE id = $1`,
		p.ID, p.ThirdPartyID, p.CardNumber, p.CoverageStart, p.ExpiryDate,
		p.Retired, p.RetiredBy, p.RetiredDate, p.RetireReason)
	return err
}

func (r *policyRepoPG) List(ctx context.Context, limit, offset int) ([]*InsurancePolicy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance_policy`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+policyCols+` FROM insurance_policy ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*InsurancePolicy
	for rows.Next() {
		p, err := r.scanPolicy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *policyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PolicySummary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, i.name, p.card_number
		FROM insurance_policy p
		JOIN insurance i ON i.id = p.insurance_id
		JOIN beneficiary b ON b.policy_id = p.id
		WHERE b.patient_id = $1 AND NOT b.retired
		ORDER BY p.created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PolicySummary
	for rows.Next() {
		var ps PolicySummary
		if err := rows.Scan(&ps.PolicyID, &ps.InsuranceName, &ps.CardNumber); err != nil {
			return nil, err
		}
		items = append(items, &ps)
	}
	return items, rows.Err()
}

const beneCols = `id, policy_id, patient_id, policy_id_number,
	retired, retired_by, retired_date, retire_reason, created_by, created_at`

func (r *policyRepoPG) scanBeneficiary(row pgx.Row) (*Beneficiary, error) {
	var b Beneficiary
	err := row.Scan(&b.ID, &b.PolicyID, &b.PatientID, &b.PolicyIDNumber,
		&b.Retired, &b.RetiredBy, &b.RetiredDate, &b.RetireReason, &b.CreatedBy, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *policyRepoPG) loadBeneficiaries(ctx context.Context, policyID uuid.UUID) ([]*Beneficiary, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+beneCols+` FROM beneficiary WHERE policy_id = $1 ORDER BY created_at`, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Beneficiary
	for rows.Next() {
		b, err := r.scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *policyRepoPG) AddBeneficiary(ctx context.Context, b *Beneficiary) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO beneficiary (id, policy_id, patient_id, policy_id_number, retired, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.PolicyID, b.PatientID, b.PolicyIDNumber, b.Retired, b.CreatedBy)
	return err
}

func (r *policyRepoPG) UpdateBeneficiary(ctx context.Context, b *Beneficiary) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE beneficiary SET policy_id_number=$2, retired=$3, retired_by=$4, retired_date=$5, retire_reason=$6
		WHERE id = $1`,
		b.ID, b.PolicyIDNumber, b.Retired, b.RetiredBy, b.RetiredDate, b.RetireReason)
	return err
}

func (r *policyRepoPG) BeneficiaryByPolicyNumber(ctx context.Context, policyIDNumber string) (*Beneficiary, error) {
	return r.scanBeneficiary(r.conn(ctx).QueryRow(ctx,
		`SELECT `+beneCols+` FROM beneficiary WHERE policy_id_number = $1 AND NOT retired`, policyIDNumber))
}

// identifierSourcePG resolves the owner's primary identifier from the
// patient_identifier table, scoped to the configured identifier type and
// default location.
type identifierSourcePG struct {
	pool           *pgxpool.Pool
	identifierType string
	location       string
}

func NewIdentifierSource(pool *pgxpool.Pool, identifierType, location string) IdentifierSource {
	return &identifierSourcePG{pool: pool, identifierType: identifierType, location: location}
}

func (s *identifierSourcePG) PrimaryIdentifier(ctx context.Context, patientID uuid.UUID) (string, error) {
	if s.identifierType == "" || s.location == "" {
		return "", config.ErrNotConfigured
	}
	var identifier string
	err := s.pool.QueryRow(ctx, `
		SELECT identifier FROM patient_identifier
		WHERE patient_id = $1 AND identifier_type = $2 AND location = $3 AND NOT voided
		ORDER BY created_at LIMIT 1`,
		patientID, s.identifierType, s.location).Scan(&identifier)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoIdentifier
	}
	return identifier, err
}
