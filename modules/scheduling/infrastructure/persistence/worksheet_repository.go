package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
	"github.com/shiftopia/shiftopia/pkg/composables"
)

type WorksheetRepository struct{}

func NewWorksheetRepository() *WorksheetRepository {
	return &WorksheetRepository{}
}

const worksheetColumns = `id, month, year, name, status, stations, created_at, updated_at`
const entryColumns = `id, worksheet_id, day, workstation, employees, created_at, updated_at`

func (r *WorksheetRepository) List(ctx context.Context) ([]services.Worksheet, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+worksheetColumns+`
FROM worksheets
ORDER BY year DESC, month DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]services.Worksheet, 0, 16)
	for rows.Next() {
		w, err := scanWorksheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *WorksheetRepository) GetByID(ctx context.Context, id int64) (services.Worksheet, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Worksheet{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+worksheetColumns+`
FROM worksheets
WHERE id = $1
`, id)
	w, err := scanWorksheet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Worksheet{}, services.ErrWorksheetNotFound
		}
		return services.Worksheet{}, err
	}
	return w, nil
}

func (r *WorksheetRepository) Insert(ctx context.Context, w services.Worksheet) (services.Worksheet, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Worksheet{}, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO worksheets (month, year, name, status, stations)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+worksheetColumns+`
`, w.Month, w.Year, w.Name, w.Status, w.Stations)
	created, err := scanWorksheet(row)
	if err != nil {
		return services.Worksheet{}, fmt.Errorf("insert worksheet: %w", err)
	}
	return created, nil
}

func (r *WorksheetRepository) UpdateStatus(ctx context.Context, id int64, status string) (services.Worksheet, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Worksheet{}, err
	}

	row := tx.QueryRow(ctx, `
UPDATE worksheets
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING `+worksheetColumns+`
`, id, status)
	updated, err := scanWorksheet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Worksheet{}, services.ErrWorksheetNotFound
		}
		return services.Worksheet{}, err
	}
	return updated, nil
}

func (r *WorksheetRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	// The FK cascades too; the explicit delete keeps the entry removal in the
	// same statement batch for audit purposes.
	if _, err := tx.Exec(ctx, `DELETE FROM worksheet_entries WHERE worksheet_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM worksheets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrWorksheetNotFound
	}
	return nil
}

func (r *WorksheetRepository) ListEntries(ctx context.Context, worksheetID int64) ([]services.WorksheetEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+entryColumns+`
FROM worksheet_entries
WHERE worksheet_id = $1
ORDER BY day ASC, workstation ASC
`, worksheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]services.WorksheetEntry, 0, 64)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *WorksheetRepository) UpsertEntry(ctx context.Context, e services.WorksheetEntry) (services.WorksheetEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.WorksheetEntry{}, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO worksheet_entries (worksheet_id, day, workstation, employees)
VALUES ($1, $2, $3, $4)
ON CONFLICT (worksheet_id, day, workstation)
DO UPDATE SET employees = EXCLUDED.employees, updated_at = now()
RETURNING `+entryColumns+`
`, e.WorksheetID, e.Day, e.Workstation, e.Employees)
	upserted, err := scanEntry(row)
	if err != nil {
		return services.WorksheetEntry{}, fmt.Errorf("upsert worksheet entry: %w", err)
	}
	return upserted, nil
}

func (r *WorksheetRepository) DeleteEntry(ctx context.Context, worksheetID int64, day int, workstation string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
DELETE FROM worksheet_entries
WHERE worksheet_id = $1 AND day = $2 AND workstation = $3
`, worksheetID, day, workstation)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrEntryNotFound
	}
	return nil
}

func scanWorksheet(row pgx.Row) (services.Worksheet, error) {
	var w services.Worksheet
	if err := row.Scan(&w.ID, &w.Month, &w.Year, &w.Name, &w.Status, &w.Stations, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return services.Worksheet{}, err
	}
	return w, nil
}

func scanEntry(row pgx.Row) (services.WorksheetEntry, error) {
	var e services.WorksheetEntry
	if err := row.Scan(&e.ID, &e.WorksheetID, &e.Day, &e.Workstation, &e.Employees, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return services.WorksheetEntry{}, err
	}
	return e, nil
}
