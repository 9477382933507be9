package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/shiftopia/shiftopia/modules/directory/services"
	"github.com/shiftopia/shiftopia/pkg/composables"
)

type TimeoffRepository struct{}

func NewTimeoffRepository() *TimeoffRepository {
	return &TimeoffRepository{}
}

const timeoffColumns = `id, employee, start_date, end_date, reason, status, created_at, updated_at`

func (r *TimeoffRepository) List(ctx context.Context) ([]services.TimeoffRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+timeoffColumns+`
FROM timeoff_requests
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *TimeoffRepository) ListByEmployee(ctx context.Context, employee string) ([]services.TimeoffRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+timeoffColumns+`
FROM timeoff_requests
WHERE lower(employee) = lower($1)
ORDER BY created_at DESC
`, employee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *TimeoffRepository) GetByID(ctx context.Context, id int64) (services.TimeoffRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.TimeoffRequest{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+timeoffColumns+`
FROM timeoff_requests
WHERE id = $1
`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.TimeoffRequest{}, services.ErrRequestNotFound
		}
		return services.TimeoffRequest{}, err
	}
	return req, nil
}

func (r *TimeoffRepository) Insert(ctx context.Context, req services.TimeoffRequest) (services.TimeoffRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.TimeoffRequest{}, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO timeoff_requests (employee, start_date, end_date, reason, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+timeoffColumns,
		req.Employee, req.StartDate, req.EndDate, req.Reason, req.Status,
	)
	return scanRequest(row)
}

func (r *TimeoffRepository) UpdateStatus(ctx context.Context, id int64, status string) (services.TimeoffRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.TimeoffRequest{}, err
	}

	row := tx.QueryRow(ctx, `
UPDATE timeoff_requests
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING `+timeoffColumns,
		id, status,
	)
	updated, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.TimeoffRequest{}, services.ErrRequestNotFound
		}
		return services.TimeoffRequest{}, err
	}
	return updated, nil
}

func collectRequests(rows pgx.Rows) ([]services.TimeoffRequest, error) {
	out := make([]services.TimeoffRequest, 0, 16)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanRequest(row pgx.Row) (services.TimeoffRequest, error) {
	var req services.TimeoffRequest
	err := row.Scan(
		&req.ID,
		&req.Employee,
		&req.StartDate,
		&req.EndDate,
		&req.Reason,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	return req, err
}
