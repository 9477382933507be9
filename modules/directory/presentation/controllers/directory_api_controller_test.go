package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftopia/shiftopia/modules/directory/presentation/controllers"
	"github.com/shiftopia/shiftopia/modules/directory/services"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/composables"
	"github.com/shiftopia/shiftopia/pkg/configuration"
	"github.com/shiftopia/shiftopia/pkg/constants"
	"github.com/shiftopia/shiftopia/pkg/eventbus"
	"github.com/shiftopia/shiftopia/pkg/middleware"
)

type stubTx struct{}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

type fakeEmployeeRepo struct {
	nextID    int64
	employees []services.Employee
}

func (r *fakeEmployeeRepo) List(context.Context) ([]services.Employee, error) {
	out := make([]services.Employee, len(r.employees))
	copy(out, r.employees)
	return out, nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id int64) (services.Employee, error) {
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return services.Employee{}, services.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) GetByEmail(_ context.Context, email string) (services.Employee, error) {
	for _, e := range r.employees {
		if strings.EqualFold(e.Email, email) {
			return e, nil
		}
	}
	return services.Employee{}, services.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) GetByUsername(_ context.Context, username string) (services.Employee, error) {
	for _, e := range r.employees {
		if strings.EqualFold(e.Username, username) {
			return e, nil
		}
	}
	return services.Employee{}, services.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) Insert(_ context.Context, e services.Employee) (services.Employee, error) {
	for _, existing := range r.employees {
		if strings.EqualFold(existing.Email, e.Email) {
			return services.Employee{}, services.ErrDuplicateEmail
		}
		if strings.EqualFold(existing.Username, e.Username) {
			return services.Employee{}, services.ErrDuplicateUsername
		}
	}
	r.nextID++
	e.ID = r.nextID
	r.employees = append(r.employees, e)
	return e, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e services.Employee) (services.Employee, error) {
	for i, existing := range r.employees {
		if existing.ID == e.ID {
			r.employees[i] = e
			return e, nil
		}
	}
	return services.Employee{}, services.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees[i].PasswordHash = hash
			return nil
		}
	}
	return services.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) UpdatePreferences(_ context.Context, id int64, prefs map[string]any) (services.Employee, error) {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees[i].ColumnPreferences = prefs
			return r.employees[i], nil
		}
	}
	return services.Employee{}, services.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id int64) error {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees = append(r.employees[:i], r.employees[i+1:]...)
			return nil
		}
	}
	return services.ErrEmployeeNotFound
}

type fakeTimeoffRepo struct {
	nextID   int64
	requests []services.TimeoffRequest
}

func (r *fakeTimeoffRepo) List(context.Context) ([]services.TimeoffRequest, error) {
	out := make([]services.TimeoffRequest, len(r.requests))
	copy(out, r.requests)
	return out, nil
}

func (r *fakeTimeoffRepo) ListByEmployee(_ context.Context, employee string) ([]services.TimeoffRequest, error) {
	var out []services.TimeoffRequest
	for _, req := range r.requests {
		if strings.EqualFold(req.Employee, employee) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeTimeoffRepo) GetByID(_ context.Context, id int64) (services.TimeoffRequest, error) {
	for _, req := range r.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return services.TimeoffRequest{}, services.ErrRequestNotFound
}

func (r *fakeTimeoffRepo) Insert(_ context.Context, req services.TimeoffRequest) (services.TimeoffRequest, error) {
	r.nextID++
	req.ID = r.nextID
	r.requests = append(r.requests, req)
	return req, nil
}

func (r *fakeTimeoffRepo) UpdateStatus(_ context.Context, id int64, status string) (services.TimeoffRequest, error) {
	for i, req := range r.requests {
		if req.ID == id {
			r.requests[i].Status = status
			return r.requests[i], nil
		}
	}
	return services.TimeoffRequest{}, services.ErrRequestNotFound
}

type directoryFixture struct {
	router    *mux.Router
	employees *services.EmployeeService
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	employeeRepo := &fakeEmployeeRepo{}
	employees := services.NewEmployeeService(employeeRepo, nil)

	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	app.RegisterServices(
		employees,
		services.NewAuthService(employeeRepo, configuration.Use()),
		services.NewTimeoffService(&fakeTimeoffRepo{}, nil),
	)

	router := mux.NewRouter()
	router.Use(middleware.Provide(constants.TxKey, stubTx{}))
	controllers.NewDirectoryAPIController(app).Register(router)

	return &directoryFixture{router: router, employees: employees}
}

// seed creates an employee directly through the service, bypassing HTTP.
func (f *directoryFixture) seed(t *testing.T, name, username, email, role, password string) services.Employee {
	t.Helper()
	ctx := composables.WithTx(context.Background(), stubTx{})
	employee, err := f.employees.Create(ctx, services.CreateEmployeeInput{
		Name:     name,
		Username: username,
		Email:    email,
		Role:     role,
		Password: password,
	})
	require.NoError(t, err)
	return employee
}

func (f *directoryFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// login round-trips credentials through the public endpoint and returns
// the issued token.
func (f *directoryFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Code
}

func TestDirectoryAPI_LoginFlow(t *testing.T) {
	f := newDirectoryFixture(t)
	f.seed(t, "Alice Smith", "alice", "alice@example.com", "employee", "correct-horse")

	token := f.login(t, "alice", "correct-horse")

	// The issued token unlocks the authorized surface.
	rec := f.do(t, http.MethodGet, "/api/employees", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	// Unknown usernames answer with the same error as bad passwords.
	rec = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDirectoryAPI_EmployeeMutationsNeedManager(t *testing.T) {
	f := newDirectoryFixture(t)
	f.seed(t, "Alice Smith", "alice", "alice@example.com", "employee", "correct-horse")
	f.seed(t, "Boss", "boss", "boss@example.com", "manager", "super-secret")

	alice := f.login(t, "alice", "correct-horse")
	boss := f.login(t, "boss", "super-secret")

	body := map[string]string{
		"name": "Carol", "username": "carol", "email": "carol@example.com", "password": "pass-word-1",
	}

	rec := f.do(t, http.MethodPost, "/api/employees", alice, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/employees", boss, body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/employees/3", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/employees/3", boss, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDirectoryAPI_EmployeePhoneRoundTrip(t *testing.T) {
	f := newDirectoryFixture(t)
	f.seed(t, "Boss", "boss", "boss@example.com", "manager", "super-secret")
	boss := f.login(t, "boss", "super-secret")

	rec := f.do(t, http.MethodPost, "/api/employees", boss, map[string]string{
		"name": "Carol", "username": "carol", "email": "carol@example.com",
		"phone": "+1 555 0142", "password": "pass-word-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created services.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "+1 555 0142", created.Phone)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/employees/%d", created.ID), boss, map[string]string{
		"phone": "+1 555 0143",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated services.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "+1 555 0143", updated.Phone)
	assert.Equal(t, "Carol", updated.Name)
}

func TestDirectoryAPI_PreferencesOwnAccountOnly(t *testing.T) {
	f := newDirectoryFixture(t)
	alice := f.seed(t, "Alice Smith", "alice", "alice@example.com", "employee", "correct-horse")
	bob := f.seed(t, "Bob Jones", "bob", "bob@example.com", "employee", "other-secret")
	f.seed(t, "Boss", "boss", "boss@example.com", "manager", "super-secret")

	aliceToken := f.login(t, "alice", "correct-horse")
	bossToken := f.login(t, "boss", "super-secret")

	prefs := map[string]any{"column_preferences": map[string]any{"compact": true}}

	rec := f.do(t, http.MethodPut, "/api/employees/1/preferences", aliceToken, prefs)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated services.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, alice.ID, updated.ID)
	assert.Equal(t, true, updated.ColumnPreferences["compact"])

	rec = f.do(t, http.MethodPut, "/api/employees/2/preferences", aliceToken, prefs)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Managers may touch anyone's preferences.
	rec = f.do(t, http.MethodPut, "/api/employees/2/preferences", bossToken, prefs)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, bob.ID, updated.ID)
}

func TestDirectoryAPI_TimeoffSelfScoping(t *testing.T) {
	f := newDirectoryFixture(t)
	f.seed(t, "Alice Smith", "alice", "alice@example.com", "employee", "correct-horse")
	f.seed(t, "Boss", "boss", "boss@example.com", "manager", "super-secret")

	alice := f.login(t, "alice", "correct-horse")
	boss := f.login(t, "boss", "super-secret")

	// The employee field in the body is ignored for non-managers.
	rec := f.do(t, http.MethodPost, "/api/requests", alice, map[string]string{
		"employee": "Bob Jones", "start_date": "2025-03-10", "end_date": "2025-03-12",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created services.TimeoffRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Alice Smith", created.Employee)
	assert.Equal(t, services.RequestPending, created.Status)

	rec = f.do(t, http.MethodPost, "/api/requests", boss, map[string]string{
		"employee": "Bob Jones", "start_date": "2025-03-15", "end_date": "2025-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var listed []services.TimeoffRequest
	rec = f.do(t, http.MethodGet, "/api/requests", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Alice Smith", listed[0].Employee)

	rec = f.do(t, http.MethodGet, "/api/requests", boss, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)
}

func TestDirectoryAPI_RequestResolutionNeedsManager(t *testing.T) {
	f := newDirectoryFixture(t)
	f.seed(t, "Alice Smith", "alice", "alice@example.com", "employee", "correct-horse")
	f.seed(t, "Boss", "boss", "boss@example.com", "manager", "super-secret")

	alice := f.login(t, "alice", "correct-horse")
	boss := f.login(t, "boss", "super-secret")

	rec := f.do(t, http.MethodPost, "/api/requests", alice, map[string]string{
		"start_date": "2025-04-01", "end_date": "2025-04-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/requests/1/approve", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/requests/1/approve", boss, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resolved services.TimeoffRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.Equal(t, services.RequestApproved, resolved.Status)

	// A resolved request cannot flip again.
	rec = f.do(t, http.MethodPut, "/api/requests/1/deny", boss, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATUS", errorCode(t, rec))
}

func TestDirectoryAPI_ChangePassword(t *testing.T) {
	f := newDirectoryFixture(t)
	f.seed(t, "Alice Smith", "alice", "alice@example.com", "employee", "correct-horse")

	rec := f.do(t, http.MethodPost, "/api/auth/password", "", map[string]string{
		"username": "alice", "old_password": "correct-horse", "new_password": "battery-staple",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/password", "", map[string]string{
		"username": "alice", "old_password": "correct-horse", "new_password": "battery-staple",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.login(t, "alice", "battery-staple")
}
