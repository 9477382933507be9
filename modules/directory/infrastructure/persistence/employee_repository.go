package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/shiftopia/shiftopia/modules/directory/services"
	"github.com/shiftopia/shiftopia/pkg/composables"
)

type EmployeeRepository struct{}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{}
}

const employeeColumns = `id, name, username, email, role, phone, password_hash, column_preferences, created_at, updated_at`

func (r *EmployeeRepository) List(ctx context.Context) ([]services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+employeeColumns+`
FROM employees
ORDER BY name ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]services.Employee, 0, 32)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, employee)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+employeeColumns+`
FROM employees
WHERE id = $1
`, id)
	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Employee{}, services.ErrEmployeeNotFound
		}
		return services.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+employeeColumns+`
FROM employees
WHERE lower(email) = lower($1)
LIMIT 1
`, email)
	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Employee{}, services.ErrEmployeeNotFound
		}
		return services.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) GetByUsername(ctx context.Context, username string) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+employeeColumns+`
FROM employees
WHERE lower(username) = lower($1)
LIMIT 1
`, username)
	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Employee{}, services.ErrEmployeeNotFound
		}
		return services.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) Insert(ctx context.Context, e services.Employee) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO employees (name, username, email, role, phone, password_hash, column_preferences)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+employeeColumns,
		e.Name, e.Username, e.Email, e.Role, e.Phone, e.PasswordHash, e.ColumnPreferences,
	)
	inserted, err := scanEmployee(row)
	if err != nil {
		if isUniqueViolation(err, "employees_email_key") {
			return services.Employee{}, services.ErrDuplicateEmail
		}
		if isUniqueViolation(err, "employees_username_key") {
			return services.Employee{}, services.ErrDuplicateUsername
		}
		return services.Employee{}, err
	}
	return inserted, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e services.Employee) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}

	row := tx.QueryRow(ctx, `
UPDATE employees
SET name = $2, email = $3, role = $4, phone = $5, updated_at = now()
WHERE id = $1
RETURNING `+employeeColumns,
		e.ID, e.Name, e.Email, e.Role, e.Phone,
	)
	updated, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Employee{}, services.ErrEmployeeNotFound
		}
		if isUniqueViolation(err, "employees_email_key") {
			return services.Employee{}, services.ErrDuplicateEmail
		}
		return services.Employee{}, err
	}
	return updated, nil
}

func (r *EmployeeRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE employees
SET password_hash = $2, updated_at = now()
WHERE id = $1
`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepository) UpdatePreferences(ctx context.Context, id int64, prefs map[string]any) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}

	row := tx.QueryRow(ctx, `
UPDATE employees
SET column_preferences = $2, updated_at = now()
WHERE id = $1
RETURNING `+employeeColumns,
		id, prefs,
	)
	updated, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.Employee{}, services.ErrEmployeeNotFound
		}
		return services.Employee{}, err
	}
	return updated, nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrEmployeeNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (services.Employee, error) {
	var e services.Employee
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Username,
		&e.Email,
		&e.Role,
		&e.Phone,
		&e.PasswordHash,
		&e.ColumnPreferences,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}
