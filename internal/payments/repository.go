package payments

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	pkgerrors "caseflow/pkg/errors"
)

// Repository persists payment rows in Postgres. Saves are upserts keyed on
// the row id, so the pending and terminal writes of one lifecycle hit the
// same row.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SavePayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO new_payments (
			id, envelope_id, case_ref, is_exception_record, po_box,
			jurisdiction, service, control_numbers, status, status_message,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			case_ref = EXCLUDED.case_ref,
			is_exception_record = EXCLUDED.is_exception_record,
			status = EXCLUDED.status,
			status_message = EXCLUDED.status_message,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.EnvelopeID, p.CaseRef, p.IsExceptionRecord, p.POBox,
		p.Jurisdiction, p.Service, pq.Array(p.ControlNumbers), p.Status, p.StatusMessage,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving payment %s: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) FindPaymentByID(ctx context.Context, id string) (*Payment, error) {
	query := `
		SELECT id, envelope_id, case_ref, is_exception_record, po_box,
		       jurisdiction, service, control_numbers, status, status_message,
		       created_at, updated_at
		FROM new_payments WHERE id = $1`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, pkgerrors.ErrNotFound.WithDetail("payment_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading payment %s: %w", id, err)
	}
	return p, nil
}

func (r *Repository) FindPaymentsByStatus(ctx context.Context, status Status) ([]Payment, error) {
	query := `
		SELECT id, envelope_id, case_ref, is_exception_record, po_box,
		       jurisdiction, service, control_numbers, status, status_message,
		       created_at, updated_at
		FROM new_payments WHERE status = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("listing payments by status %s: %w", status, err)
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *Repository) SaveUpdatePayment(ctx context.Context, p *UpdatePayment) error {
	query := `
		INSERT INTO update_payments (
			id, envelope_id, jurisdiction, exception_record_ref, new_case_ref,
			status, status_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			new_case_ref = EXCLUDED.new_case_ref,
			status = EXCLUDED.status,
			status_message = EXCLUDED.status_message,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.EnvelopeID, p.Jurisdiction, p.ExceptionRecordRef, p.NewCaseRef,
		p.Status, p.StatusMessage, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving update payment %s: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) FindUpdatePaymentByID(ctx context.Context, id string) (*UpdatePayment, error) {
	query := `
		SELECT id, envelope_id, jurisdiction, exception_record_ref, new_case_ref,
		       status, status_message, created_at, updated_at
		FROM update_payments WHERE id = $1`

	p, err := scanUpdatePayment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, pkgerrors.ErrNotFound.WithDetail("payment_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading update payment %s: %w", id, err)
	}
	return p, nil
}

func (r *Repository) FindUpdatePaymentsByStatus(ctx context.Context, status Status) ([]UpdatePayment, error) {
	query := `
		SELECT id, envelope_id, jurisdiction, exception_record_ref, new_case_ref,
		       status, status_message, created_at, updated_at
		FROM update_payments WHERE status = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("listing update payments by status %s: %w", status, err)
	}
	defer rows.Close()

	var result []UpdatePayment
	for rows.Next() {
		p, err := scanUpdatePayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning update payment row: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	var p Payment
	var message sql.NullString
	err := row.Scan(
		&p.ID, &p.EnvelopeID, &p.CaseRef, &p.IsExceptionRecord, &p.POBox,
		&p.Jurisdiction, &p.Service, pq.Array(&p.ControlNumbers), &p.Status, &message,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.StatusMessage = message.String
	return &p, nil
}

func scanUpdatePayment(row rowScanner) (*UpdatePayment, error) {
	var p UpdatePayment
	var message sql.NullString
	err := row.Scan(
		&p.ID, &p.EnvelopeID, &p.Jurisdiction, &p.ExceptionRecordRef, &p.NewCaseRef,
		&p.Status, &message, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.StatusMessage = message.String
	return &p, nil
}
