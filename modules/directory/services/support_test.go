package services

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shiftopia/shiftopia/pkg/composables"
)

// stubTx satisfies repo.Tx so InTx reuses it instead of opening a real
// transaction. The in-memory repositories below never touch it.
type stubTx struct{}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func testCtx() context.Context {
	return composables.WithTx(context.Background(), stubTx{})
}

type memEmployeeRepo struct {
	nextID    int64
	employees []Employee
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{}
}

func (r *memEmployeeRepo) List(context.Context) ([]Employee, error) {
	out := make([]Employee, len(r.employees))
	copy(out, r.employees)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memEmployeeRepo) GetByID(_ context.Context, id int64) (Employee, error) {
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (r *memEmployeeRepo) GetByEmail(_ context.Context, email string) (Employee, error) {
	for _, e := range r.employees {
		if strings.EqualFold(e.Email, email) {
			return e, nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (r *memEmployeeRepo) GetByUsername(_ context.Context, username string) (Employee, error) {
	for _, e := range r.employees {
		if strings.EqualFold(e.Username, username) {
			return e, nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (r *memEmployeeRepo) Insert(_ context.Context, e Employee) (Employee, error) {
	for _, existing := range r.employees {
		if strings.EqualFold(existing.Email, e.Email) {
			return Employee{}, ErrDuplicateEmail
		}
		if strings.EqualFold(existing.Username, e.Username) {
			return Employee{}, ErrDuplicateUsername
		}
	}
	r.nextID++
	e.ID = r.nextID
	r.employees = append(r.employees, e)
	return e, nil
}

func (r *memEmployeeRepo) Update(_ context.Context, e Employee) (Employee, error) {
	for i, existing := range r.employees {
		if existing.ID == e.ID {
			for _, other := range r.employees {
				if other.ID != e.ID && strings.EqualFold(other.Email, e.Email) {
					return Employee{}, ErrDuplicateEmail
				}
			}
			r.employees[i] = e
			return e, nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (r *memEmployeeRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees[i].PasswordHash = hash
			return nil
		}
	}
	return ErrEmployeeNotFound
}

func (r *memEmployeeRepo) UpdatePreferences(_ context.Context, id int64, prefs map[string]any) (Employee, error) {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees[i].ColumnPreferences = prefs
			return r.employees[i], nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (r *memEmployeeRepo) Delete(_ context.Context, id int64) error {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees = append(r.employees[:i], r.employees[i+1:]...)
			return nil
		}
	}
	return ErrEmployeeNotFound
}

type memTimeoffRepo struct {
	nextID   int64
	requests []TimeoffRequest
}

func newMemTimeoffRepo() *memTimeoffRepo {
	return &memTimeoffRepo{}
}

func (r *memTimeoffRepo) List(context.Context) ([]TimeoffRequest, error) {
	out := make([]TimeoffRequest, len(r.requests))
	copy(out, r.requests)
	return out, nil
}

func (r *memTimeoffRepo) ListByEmployee(_ context.Context, employee string) ([]TimeoffRequest, error) {
	out := make([]TimeoffRequest, 0, len(r.requests))
	for _, req := range r.requests {
		if strings.EqualFold(req.Employee, employee) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *memTimeoffRepo) GetByID(_ context.Context, id int64) (TimeoffRequest, error) {
	for _, req := range r.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return TimeoffRequest{}, ErrRequestNotFound
}

func (r *memTimeoffRepo) Insert(_ context.Context, req TimeoffRequest) (TimeoffRequest, error) {
	r.nextID++
	req.ID = r.nextID
	r.requests = append(r.requests, req)
	return req, nil
}

func (r *memTimeoffRepo) UpdateStatus(_ context.Context, id int64, status string) (TimeoffRequest, error) {
	for i, req := range r.requests {
		if req.ID == id {
			r.requests[i].Status = status
			return r.requests[i], nil
		}
	}
	return TimeoffRequest{}, ErrRequestNotFound
}
