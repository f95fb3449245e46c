package tariff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediclaim/mediclaim/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type facilityServiceRepoPG struct{ pool *pgxpool.Pool }

func NewFacilityServiceRepo(pool *pgxpool.Pool) FacilityServiceRepository {
	return &facilityServiceRepoPG{pool: pool}
}

func (r *facilityServiceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const fspCols = `id, name, category, full_price, start_date, end_date,
	retired, retired_by, retired_date, retire_reason, created_by, created_at`

func (r *facilityServiceRepoPG) scanFSP(row pgx.Row) (*FacilityServicePrice, error) {
	var fsp FacilityServicePrice
	err := row.Scan(&fsp.ID, &fsp.Name, &fsp.Category, &fsp.FullPrice, &fsp.StartDate, &fsp.EndDate,
		&fsp.Retired, &fsp.RetiredBy, &fsp.RetiredDate, &fsp.RetireReason, &fsp.CreatedBy, &fsp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &fsp, err
}

func (r *facilityServiceRepoPG) Create(ctx context.Context, fsp *FacilityServicePrice) error {
	fsp.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO facility_service_price (id, name, category, full_price, start_date, end_date, retired, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		fsp.ID, fsp.Name, fsp.Category, fsp.FullPrice, fsp.StartDate, fsp.EndDate, fsp.Retired, fsp.CreatedBy)
	return err
}

func (r *facilityServiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*FacilityServicePrice, error) {
	fsp, err := r.scanFSP(r.conn(ctx).QueryRow(ctx,
		`SELECT `+fspCols+` FROM facility_service_price WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if fsp.Services, err = r.loadServices(ctx, fsp.ID); err != nil {
		return nil, err
	}
	return fsp, nil
}

func (r *facilityServiceRepoPG) Update(ctx context.Context, fsp *FacilityServicePrice) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE facility_service_price SET name=$2, category=$3, full_price=$4, start_date=$5, end_date=$6,
			retired=$7, retired_by=$8, retired_date=$9, retire_reason=$10
		WHERE id = $1`,
		fsp.ID, fsp.Name, fsp.Category, fsp.FullPrice, fsp.StartDate, fsp.EndDate,
		fsp.Retired, fsp.RetiredBy, fsp.RetiredDate, fsp.RetireReason)
	return err
}

func (r *facilityServiceRepoPG) List(ctx context.Context, retired bool, limit, offset int) ([]*FacilityServicePrice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM facility_service_price WHERE retired = $1`, retired).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+fspCols+` FROM facility_service_price WHERE retired = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		retired, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*FacilityServicePrice
	for rows.Next() {
		fsp, err := r.scanFSP(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, fsp)
	}
	return items, total, rows.Err()
}

const bsCols = `id, facility_service_id, insurance_id, maxima_to_pay, start_date, end_date,
	retired, retired_by, retired_date, retire_reason, created_by, created_at`

func (r *facilityServiceRepoPG) scanService(row pgx.Row) (*BillableService, error) {
	var bs BillableService
	err := row.Scan(&bs.ID, &bs.FacilityServiceID, &bs.InsuranceID, &bs.MaximaToPay,
		&bs.StartDate, &bs.EndDate, &bs.Retired, &bs.RetiredBy, &bs.RetiredDate,
		&bs.RetireReason, &bs.CreatedBy, &bs.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &bs, err
}

func (r *facilityServiceRepoPG) loadServices(ctx context.Context, fspID uuid.UUID) ([]*BillableService, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bsCols+` FROM billable_service WHERE facility_service_id = $1 ORDER BY start_date`, fspID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BillableService
	for rows.Next() {
		bs, err := r.scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, bs)
	}
	return items, rows.Err()
}

func (r *facilityServiceRepoPG) AddService(ctx context.Context, bs *BillableService) error {
	bs.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO billable_service (id, facility_service_id, insurance_id, maxima_to_pay, start_date, end_date, retired, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		bs.ID, bs.FacilityServiceID, bs.InsuranceID, bs.MaximaToPay, bs.StartDate, bs.EndDate, bs.Retired, bs.CreatedBy)
	return err
}

func (r *facilityServiceRepoPG) UpdateService(ctx context.Context, bs *BillableService) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE billable_service SET maxima_to_pay=$2, start_date=$3, end_date=$4,
			retired=$5, retired_by=$6, retired_date=$7, retire_reason=$8
		WHERE id = $1`,
		bs.ID, bs.MaximaToPay, bs.StartDate, bs.EndDate,
		bs.Retired, bs.RetiredBy, bs.RetiredDate, bs.RetireReason)
	return err
}

func (r *facilityServiceRepoPG) ServicesByInsurance(ctx context.Context, insuranceID uuid.UUID) ([]*BillableService, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bsCols+` FROM billable_service WHERE insurance_id = $1 AND NOT retired ORDER BY start_date`,
		insuranceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BillableService
	for rows.Next() {
		bs, err := r.scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, bs)
	}
	return items, rows.Err()
}
