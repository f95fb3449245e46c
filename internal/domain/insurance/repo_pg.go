package insurance

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

// =========== Insurance Repository ===========

type insuranceRepoPG struct{ pool *pgxpool.Pool }

func NewInsuranceRepo(pool *pgxpool.Pool) InsuranceRepository { return &insuranceRepoPG{pool: pool} }

func (r *insuranceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const insCols = `id, name, category, address, phone,
	voided, voided_by, voided_date, void_reason, created_by, created_at`

func (r *insuranceRepoPG) scanInsurance(row pgx.Row) (*Insurance, error) {
	var ins Insurance
	err := row.Scan(&ins.ID, &ins.Name, &ins.Category, &ins.Address, &ins.Phone,
		&ins.Voided, &ins.VoidedBy, &ins.VoidedDate, &ins.VoidReason, &ins.CreatedBy, &ins.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &ins, err
}

func (r *insuranceRepoPG) Create(ctx context.Context, ins *Insurance) error {
	ins.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance (id, name, category, address, phone, voided, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ins.ID, ins.Name, ins.Category, ins.Address, ins.Phone, ins.Voided, ins.CreatedBy)
	return err
}

func (r *insuranceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Insurance, error) {
	ins, err := r.scanInsurance(r.conn(ctx).QueryRow(ctx,
		`SELECT `+insCols+` FROM insurance WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rates, err := r.loadRates(ctx, ins.ID)
	if err != nil {
		return nil, err
	}
	ins.Rates = rates
	return ins, nil
}

func (r *insuranceRepoPG) Update(ctx context.Context, ins *Insurance) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance SET name=$2, category=$3, address=$4, phone=$5,
			voided=$6, voided_by=$7, voided_date=$8, void_reason=$9
		WHERE id = $1`,
		ins.ID, ins.Name, ins.Category, ins.Address, ins.Phone,
		ins.Voided, ins.VoidedBy, ins.VoidedDate, ins.VoidReason)
	return err
}

func (r *insuranceRepoPG) List(ctx context.Context, voided bool, limit, offset int) ([]*Insurance, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM insurance WHERE voided = $1`, voided).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+insCols+` FROM insurance WHERE voided = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		voided, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Insurance
	for rows.Next() {
		ins, err := r.scanInsurance(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ins)
	}
	for _, ins := range items {
		rates, err := r.loadRates(ctx, ins.ID)
		if err != nil {
			return nil, 0, err
		}
		ins.Rates = rates
	}
	return items, total, nil
}

const rateCols = `id, insurance_id, rate, flat_fee, start_date, end_date,
	retired, retired_by, retired_date, retire_reason, created_at`

func (r *insuranceRepoPG) loadRates(ctx context.Context, insuranceID uuid.UUID) ([]*InsuranceRate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rateCols+` FROM insurance_rate WHERE insurance_id = $1 ORDER BY start_date`, insuranceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rates []*InsuranceRate
	for rows.Next() {
		var rate InsuranceRate
		if err := rows.Scan(&rate.ID, &rate.InsuranceID, &rate.Rate, &rate.FlatFee,
			&rate.StartDate, &rate.EndDate, &rate.Retired, &rate.RetiredBy,
			&rate.RetiredDate, &rate.RetireReason, &rate.CreatedAt); err != nil {
			return nil, err
		}
		rates = append(rates, &rate)
	}
	return rates, rows.Err()
}

func (r *insuranceRepoPG) AddRate(ctx context.Context, rate *InsuranceRate) error {
	rate.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_rate (id, insurance_id, rate, flat_fee, start_date, end_date, retired)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rate.ID, rate.InsuranceID, rate.Rate, rate.FlatFee, rate.StartDate, rate.EndDate, rate.Retired)
	return err
}

func (r *insuranceRepoPG) UpdateRate(ctx context.Context, rate *InsuranceRate) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_rate SET rate=$2, flat_fee=$3, start_date=$4, end_date=$5,
			retired=$6, retired_by=$7, retired_date=$8, retire_reason=$9
		WHERE id = $1`,
		rate.ID, rate.Rate, rate.FlatFee, rate.StartDate, rate.EndDate,
		rate.Retired, rate.RetiredBy, rate.RetiredDate, rate.RetireReason)
	return err
}

// =========== ThirdParty Repository ===========

type thirdPartyRepoPG struct{ pool *pgxpool.Pool }

func NewThirdPartyRepo(pool *pgxpool.Pool) ThirdPartyRepository {
	return &thirdPartyRepoPG{pool: pool}
}

func (r *thirdPartyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const tpCols = `id, name, rate, voided, voided_by, voided_date, void_reason, created_by, created_at`

func (r *thirdPartyRepoPG) scanThirdParty(row pgx.Row) (*ThirdParty, error) {
	var tp ThirdParty
	err := row.Scan(&tp.ID, &tp.Name, &tp.Rate, &tp.Voided, &tp.VoidedBy,
		&tp.VoidedDate, &tp.VoidReason, &tp.CreatedBy, &tp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &tp, err
}

func (r *thirdPartyRepoPG) Create(ctx context.Context, tp *ThirdParty) error {
	tp.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO third_party (id, name, rate, voided, created_by)
		VALUES ($1,$2,$3,$4,$5)`,
		tp.ID, tp.Name, tp.Rate, tp.Voided, tp.CreatedBy)
	return err
}

func (r *thirdPartyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ThirdParty, error) {
	return r.scanThirdParty(r.conn(ctx).QueryRow(ctx,
		`SELECT `+tpCols+` FROM third_party WHERE id = $1`, id))
}

func (r *thirdPartyRepoPG) Update(ctx context.Context, tp *ThirdParty) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE third_party SET name=$2, rate=$3, voided=$4, voided_by=$5, voided_date=$6, void_reason=$7
		WHERE id = $1`,
		tp.ID, tp.Name, tp.Rate, tp.Voided, tp.VoidedBy, tp.VoidedDate, tp.VoidReason)
	return err
}

func (r *thirdPartyRepoPG) List(ctx context.Context, limit, offset int) ([]*ThirdParty, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM third_party`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tpCols+` FROM third_party ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ThirdParty
	for rows.Next() {
		tp, err := r.scanThirdParty(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, tp)
	}
	return items, total, rows.Err()
}
