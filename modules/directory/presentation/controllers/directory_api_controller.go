package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/shiftopia/shiftopia/modules/directory/presentation/controllers/dtos"
	"github.com/shiftopia/shiftopia/modules/directory/services"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/configuration"
	"github.com/shiftopia/shiftopia/pkg/middleware"
)

type DirectoryAPIController struct {
	app       application.Application
	employees *services.EmployeeService
	auth      *services.AuthService
	timeoff   *services.TimeoffService
	apiPrefix string
}

func NewDirectoryAPIController(app application.Application) application.Controller {
	return &DirectoryAPIController{
		app:       app,
		employees: app.Service(services.EmployeeService{}).(*services.EmployeeService),
		auth:      app.Service(services.AuthService{}).(*services.AuthService),
		timeoff:   app.Service(services.TimeoffService{}).(*services.TimeoffService),
		apiPrefix: "/api",
	}
}

func (c *DirectoryAPIController) Key() string {
	return c.apiPrefix + "/directory"
}

func (c *DirectoryAPIController) Register(r *mux.Router) {
	conf := configuration.Use()

	// Login and password change authenticate by credentials, not token.
	public := r.PathPrefix(c.apiPrefix + "/auth").Subrouter()
	public.HandleFunc("/login", c.instrumentAPI("auth.login", c.Login)).Methods(http.MethodPost)
	public.HandleFunc("/password", c.instrumentAPI("auth.password", c.ChangePassword)).Methods(http.MethodPost)

	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.Authorize(conf.JWTSecret))

	// email before {id} so mux does not swallow it as an id
	api.HandleFunc("/employees/email/{email}", c.instrumentAPI("employees.by_email", c.GetEmployeeByEmail)).Methods(http.MethodGet)
	api.HandleFunc("/employees", c.instrumentAPI("employees.list", c.ListEmployees)).Methods(http.MethodGet)
	api.HandleFunc("/employees", c.instrumentAPI("employees.create", c.CreateEmployee)).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id}", c.instrumentAPI("employees.get", c.GetEmployee)).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}", c.instrumentAPI("employees.update", c.UpdateEmployee)).Methods(http.MethodPut)
	api.HandleFunc("/employees/{id}/preferences", c.instrumentAPI("employees.preferences", c.UpdatePreferences)).Methods(http.MethodPut)
	api.HandleFunc("/employees/{id}", c.instrumentAPI("employees.delete", c.DeleteEmployee)).Methods(http.MethodDelete)

	api.HandleFunc("/requests", c.instrumentAPI("requests.list", c.ListRequests)).Methods(http.MethodGet)
	api.HandleFunc("/requests", c.instrumentAPI("requests.create", c.CreateRequest)).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/approve", c.instrumentAPI("requests.approve", c.ApproveRequest)).Methods(http.MethodPut)
	api.HandleFunc("/requests/{id}/deny", c.instrumentAPI("requests.deny", c.DenyRequest)).Methods(http.MethodPut)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func (c *DirectoryAPIController) Login(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var req dtos.LoginRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := c.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *DirectoryAPIController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var req dtos.ChangePasswordRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := c.auth.ChangePassword(r.Context(), req.Username, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *DirectoryAPIController) ListEmployees(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}

	employees, err := c.employees.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (c *DirectoryAPIController) GetEmployee(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_ID", "employee id must be a positive integer")
		return
	}

	employee, err := c.employees.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (c *DirectoryAPIController) GetEmployeeByEmail(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}
	email := strings.TrimSpace(mux.Vars(r)["email"])
	if email == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_EMAIL", "email must not be empty")
		return
	}

	employee, err := c.employees.GetByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (c *DirectoryAPIController) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	var req dtos.CreateEmployeeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", err.Error())
		return
	}

	employee, err := c.employees.Create(r.Context(), req.ToInput())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (c *DirectoryAPIController) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_ID", "employee id must be a positive integer")
		return
	}

	var req dtos.UpdateEmployeeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", err.Error())
		return
	}

	employee, err := c.employees.Update(r.Context(), id, req.ToInput())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

// UpdatePreferences lets any authenticated user save their own grid
// layout. Managers may update preferences for anyone.
func (c *DirectoryAPIController) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	claims, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_ID", "employee id must be a positive integer")
		return
	}

	if !claims.IsManager() {
		current, err := c.employees.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, requestID, err)
			return
		}
		if !strings.EqualFold(current.Username, claims.Username) {
			writeAPIError(w, http.StatusForbidden, requestID, "FORBIDDEN", "preferences can only be changed for your own account")
			return
		}
	}

	var req dtos.UpdatePreferencesRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", err.Error())
		return
	}

	employee, err := c.employees.UpdatePreferences(r.Context(), id, req.ColumnPreferences)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (c *DirectoryAPIController) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_ID", "employee id must be a positive integer")
		return
	}

	if err := c.employees.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DirectoryAPIController) ListRequests(w http.ResponseWriter, r *http.Request) {
	claims, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Managers see the whole queue, everyone else only their own.
	filter := ""
	if !claims.IsManager() {
		filter = claims.Name
	}
	requests, err := c.timeoff.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (c *DirectoryAPIController) CreateRequest(w http.ResponseWriter, r *http.Request) {
	claims, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dtos.CreateTimeoffRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", err.Error())
		return
	}
	input, err := req.ToInput()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_DATE", "dates must use the YYYY-MM-DD format")
		return
	}

	// Non-managers file requests under their own name regardless of the
	// employee field in the body.
	if input.Employee == "" || !claims.IsManager() {
		input.Employee = claims.Name
	}

	created, err := c.timeoff.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (c *DirectoryAPIController) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	c.resolveRequest(w, r, c.timeoff.Approve)
}

func (c *DirectoryAPIController) DenyRequest(w http.ResponseWriter, r *http.Request) {
	c.resolveRequest(w, r, c.timeoff.Deny)
}

func (c *DirectoryAPIController) resolveRequest(
	w http.ResponseWriter,
	r *http.Request,
	resolve func(ctx context.Context, id int64) (services.TimeoffRequest, error),
) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "INVALID_ID", "request id must be a positive integer")
		return
	}

	resolved, err := resolve(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}
