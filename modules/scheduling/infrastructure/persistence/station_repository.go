package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
	"github.com/shiftopia/shiftopia/pkg/composables"
)

type StationRepository struct{}

func NewStationRepository() *StationRepository {
	return &StationRepository{}
}

const stationColumns = `id, name, short_code, display_order, attributes, created_at, updated_at`

func (r *StationRepository) List(ctx context.Context) ([]services.Station, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+stationColumns+`
FROM stations
ORDER BY display_order ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]services.Station, 0, 16)
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, station)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *StationRepository) GetByID(ctx context.Context, id int64) (services.Station, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Station{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+stationColumns+`
FROM stations
WHERE id = $1
`, id)
	station, err := scanStation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Station{}, services.ErrStationNotFound
		}
		return services.Station{}, err
	}
	return station, nil
}

func (r *StationRepository) GetByName(ctx context.Context, name string) (services.Station, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Station{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+stationColumns+`
FROM stations
WHERE name = $1
ORDER BY display_order ASC
LIMIT 1
`, name)
	station, err := scanStation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Station{}, services.ErrStationNotFound
		}
		return services.Station{}, err
	}
	return station, nil
}

func (r *StationRepository) NextDisplayOrder(ctx context.Context) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var next int
	if err := tx.QueryRow(ctx, `
SELECT COALESCE(MAX(display_order) + 1, 0)
FROM stations
`).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *StationRepository) Insert(ctx context.Context, s services.Station) (services.Station, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Station{}, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO stations (name, short_code, display_order, attributes)
VALUES ($1, $2, $3, $4)
RETURNING `+stationColumns+`
`, s.Name, s.ShortCode, s.DisplayOrder, s.Attributes)
	created, err := scanStation(row)
	if err != nil {
		if isUniqueViolation(err, "stations_short_code_key") {
			return services.Station{}, services.ErrDuplicateCode
		}
		return services.Station{}, fmt.Errorf("insert station: %w", err)
	}
	return created, nil
}

func (r *StationRepository) Update(ctx context.Context, s services.Station) (services.Station, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Station{}, err
	}

	row := tx.QueryRow(ctx, `
UPDATE stations
SET name = $2, short_code = $3, attributes = $4, updated_at = now()
WHERE id = $1
RETURNING `+stationColumns+`
`, s.ID, s.Name, s.ShortCode, s.Attributes)
	updated, err := scanStation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Station{}, services.ErrStationNotFound
		}
		if isUniqueViolation(err, "stations_short_code_key") {
			return services.Station{}, services.ErrDuplicateCode
		}
		return services.Station{}, fmt.Errorf("update station: %w", err)
	}
	return updated, nil
}

func (r *StationRepository) UpdateOrder(ctx context.Context, id int64, order int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE stations
SET display_order = $2, updated_at = now()
WHERE id = $1
`, id, order)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrStationNotFound
	}
	return nil
}

func (r *StationRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrStationNotFound
	}
	return nil
}

func (r *StationRepository) CompactOrdersAbove(ctx context.Context, order int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
UPDATE stations
SET display_order = display_order - 1, updated_at = now()
WHERE display_order > $1
`, order)
	return err
}

func scanStation(row pgx.Row) (services.Station, error) {
	var s services.Station
	if err := row.Scan(&s.ID, &s.Name, &s.ShortCode, &s.DisplayOrder, &s.Attributes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return services.Station{}, err
	}
	return s, nil
}
