package billing

import (
	"context"
	"errors"
	"time"

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

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepo(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

func (r *billRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *billRepoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

const billCols = `id, beneficiary_id, amount, is_paid, status, printed, created_by, created_at`

func (r *billRepoPG) scanBill(row pgx.Row) (*PatientBill, error) {
	var pb PatientBill
	err := row.Scan(&pb.ID, &pb.BeneficiaryID, &pb.Amount, &pb.IsPaid, &pb.Status,
		&pb.Printed, &pb.CreatedBy, &pb.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &pb, err
}

func (r *billRepoPG) Create(ctx context.Context, pb *PatientBill) error {
	pb.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_bill (id, beneficiary_id, amount, is_paid, status, printed, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		pb.ID, pb.BeneficiaryID, pb.Amount, pb.IsPaid, pb.Status, pb.Printed, pb.CreatedBy)
	if err != nil {
		return err
	}
	for _, item := range pb.Items {
		item.ID = uuid.New()
		item.BillID = pb.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO patient_service_bill (id, bill_id, service_id, quantity, unit_price, service_date, voided)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, item.BillID, item.ServiceID, item.Quantity, item.UnitPrice, item.ServiceDate, item.Voided)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientBill, error) {
	pb, err := r.scanBill(r.conn(ctx).QueryRow(ctx,
		`SELECT `+billCols+` FROM patient_bill WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if pb.Items, err = r.loadItems(ctx, pb.ID); err != nil {
		return nil, err
	}
	if pb.Payments, err = r.loadPayments(ctx, pb.ID); err != nil {
		return nil, err
	}
	return pb, nil
}

func (r *billRepoPG) Update(ctx context.Context, pb *PatientBill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_bill SET amount=$2, is_paid=$3, status=$4, printed=$5
		WHERE id = $1`,
		pb.ID, pb.Amount, pb.IsPaid, pb.Status, pb.Printed)
	return err
}

// Line items carry the catalog entry's name and category so the invoice
// composer can group without extra lookups.
const itemSelect = `
	SELECT i.id, i.bill_id, i.service_id, f.name, f.category, i.quantity, i.unit_price,
		i.service_date, i.voided, i.voided_by, i.voided_date, i.void_reason
	FROM patient_service_bill i
	JOIN billable_service bs ON bs.id = i.service_id
	JOIN facility_service_price f ON f.id = bs.facility_service_id`

func (r *billRepoPG) loadItems(ctx context.Context, billID uuid.UUID) ([]*PatientServiceBill, error) {
	rows, err := r.conn(ctx).Query(ctx, itemSelect+` WHERE i.bill_id = $1 ORDER BY i.service_date, i.id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PatientServiceBill
	for rows.Next() {
		var item PatientServiceBill
		if err := rows.Scan(&item.ID, &item.BillID, &item.ServiceID, &item.ServiceName, &item.ServiceCategory,
			&item.Quantity, &item.UnitPrice, &item.ServiceDate,
			&item.Voided, &item.VoidedBy, &item.VoidedDate, &item.VoidReason); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

const paymentCols = `id, bill_id, amount_paid, date_received, collector_id,
	voided, voided_by, voided_date, void_reason`

func (r *billRepoPG) loadPayments(ctx context.Context, billID uuid.UUID) ([]*BillPayment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+paymentCols+` FROM bill_payment WHERE bill_id = $1 ORDER BY date_received, id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []*BillPayment
	for rows.Next() {
		var p BillPayment
		if err := rows.Scan(&p.ID, &p.BillID, &p.AmountPaid, &p.DateReceived, &p.CollectorID,
			&p.Voided, &p.VoidedBy, &p.VoidedDate, &p.VoidReason); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *billRepoPG) list(ctx context.Context, countSQL, listSQL string, countArgs, args []interface{}) ([]*PatientBill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var bills []*PatientBill
	for rows.Next() {
		pb, err := r.scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, pb := range bills {
		if pb.Items, err = r.loadItems(ctx, pb.ID); err != nil {
			return nil, 0, err
		}
		if pb.Payments, err = r.loadPayments(ctx, pb.ID); err != nil {
			return nil, 0, err
		}
	}
	return bills, total, nil
}

func (r *billRepoPG) ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID, limit, offset int) ([]*PatientBill, int, error) {
	return r.list(ctx,
		`SELECT COUNT(*) FROM patient_bill WHERE beneficiary_id = $1`,
		`SELECT `+billCols+` FROM patient_bill WHERE beneficiary_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		[]interface{}{beneficiaryID}, []interface{}{beneficiaryID, limit, offset})
}

func (r *billRepoPG) ListByPeriod(ctx context.Context, start, end time.Time, limit, offset int) ([]*PatientBill, int, error) {
	return r.list(ctx,
		`SELECT COUNT(*) FROM patient_bill WHERE created_at >= $1 AND created_at <= $2`,
		`SELECT `+billCols+` FROM patient_bill WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		[]interface{}{start, end}, []interface{}{start, end, limit, offset})
}

func (r *billRepoPG) RefundedBills(ctx context.Context, start, end time.Time, collector *uuid.UUID) ([]*PatientBill, error) {
	query := `
		SELECT DISTINCT b.id, b.beneficiary_id, b.amount, b.is_paid, b.status, b.printed, b.created_by, b.created_at
		FROM patient_bill b
		JOIN bill_payment p ON p.bill_id = b.id
		WHERE p.amount_paid < 0 AND NOT p.voided
			AND p.date_received >= $1 AND p.date_received <= $2`
	args := []interface{}{start, end}
	if collector != nil {
		query += ` AND p.collector_id = $3`
		args = append(args, *collector)
	}
	query += ` ORDER BY b.created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []*PatientBill
	for rows.Next() {
		pb, err := r.scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, pb := range bills {
		if pb.Payments, err = r.loadPayments(ctx, pb.ID); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

func (r *billRepoPG) AddPayment(ctx context.Context, p *BillPayment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_payment (id, bill_id, amount_paid, date_received, collector_id, voided)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.BillID, p.AmountPaid, p.DateReceived, p.CollectorID, p.Voided)
	return err
}

func (r *billRepoPG) UpdatePayment(ctx context.Context, p *BillPayment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill_payment SET amount_paid=$2, date_received=$3,
			voided=$4, voided_by=$5, voided_date=$6, void_reason=$7
		WHERE id = $1`,
		p.ID, p.AmountPaid, p.DateReceived, p.Voided, p.VoidedBy, p.VoidedDate, p.VoidReason)
	return err
}
