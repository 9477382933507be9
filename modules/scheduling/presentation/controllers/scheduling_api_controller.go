package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/shiftopia/shiftopia/modules/scheduling/presentation/controllers/dtos"
	"github.com/shiftopia/shiftopia/modules/scheduling/services"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/configuration"
	"github.com/shiftopia/shiftopia/pkg/middleware"
)

type SchedulingAPIController struct {
	app        application.Application
	stations   *services.StationService
	worksheets *services.WorksheetService
	apiPrefix  string
}

func NewSchedulingAPIController(app application.Application) application.Controller {
	return &SchedulingAPIController{
		app:        app,
		stations:   app.Service(services.StationService{}).(*services.StationService),
		worksheets: app.Service(services.WorksheetService{}).(*services.WorksheetService),
		apiPrefix:  "/api",
	}
}

func (c *SchedulingAPIController) Key() string {
	return c.apiPrefix + "/scheduling"
}

func (c *SchedulingAPIController) Register(r *mux.Router) {
	conf := configuration.Use()
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.Authorize(conf.JWTSecret))

	// reorder before {id} so mux does not swallow it as an id
	api.HandleFunc("/stations/reorder", c.instrumentAPI("stations.reorder", c.ReorderStations)).Methods(http.MethodPut)
	api.HandleFunc("/stations", c.instrumentAPI("stations.list", c.ListStations)).Methods(http.MethodGet)
	api.HandleFunc("/stations", c.instrumentAPI("stations.create", c.CreateStation)).Methods(http.MethodPost)
	api.HandleFunc("/stations/{id}", c.instrumentAPI("stations.update", c.UpdateStation)).Methods(http.MethodPut)
	api.HandleFunc("/stations/{id}", c.instrumentAPI("stations.delete", c.DeleteStation)).Methods(http.MethodDelete)

	api.HandleFunc("/worksheets", c.instrumentAPI("worksheets.list", c.ListWorksheets)).Methods(http.MethodGet)
	api.HandleFunc("/worksheets", c.instrumentAPI("worksheets.create", c.CreateWorksheet)).Methods(http.MethodPost)
	api.HandleFunc("/worksheets/{id}/status", c.instrumentAPI("worksheets.status", c.SetWorksheetStatus)).Methods(http.MethodPut)
	api.HandleFunc("/worksheets/{id}", c.instrumentAPI("worksheets.delete", c.DeleteWorksheet)).Methods(http.MethodDelete)
	api.HandleFunc("/worksheets/{id}/entries", c.instrumentAPI("entries.list", c.ListEntries)).Methods(http.MethodGet)
	api.HandleFunc("/worksheets/{id}/entries", c.instrumentAPI("entries.upsert", c.UpsertEntry)).Methods(http.MethodPost)
	api.HandleFunc("/worksheets/{id}/schedule", c.instrumentAPI("schedule.project", c.Schedule)).Methods(http.MethodGet)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func (c *SchedulingAPIController) ListStations(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stations, err := c.stations.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

func (c *SchedulingAPIController) CreateStation(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	var req dtos.CreateStationRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid json body")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "name and short_code are required")
		return
	}

	station, err := c.stations.Create(r.Context(), req.ToInput())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

func (c *SchedulingAPIController) UpdateStation(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid station id")
		return
	}
	var req dtos.UpdateStationRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid json body")
		return
	}

	station, err := c.stations.Update(r.Context(), id, req.ToInput())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

func (c *SchedulingAPIController) ReorderStations(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	var req dtos.ReorderStationsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid json body")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "stations list is required")
		return
	}

	stations, err := c.stations.Reorder(r.Context(), req.ToItems())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

func (c *SchedulingAPIController) DeleteStation(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid station id")
		return
	}
	if err := c.stations.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "station deleted"})
}

func (c *SchedulingAPIController) ListWorksheets(w http.ResponseWriter, r *http.Request) {
	claims, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}

	worksheets, err := c.worksheets.List(r.Context(), claims.IsManager())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, worksheets)
}

func (c *SchedulingAPIController) CreateWorksheet(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	var req dtos.CreateWorksheetRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid json body")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "month, year and name are required")
		return
	}

	worksheet, err := c.worksheets.Create(r.Context(), services.CreateWorksheetInput{
		Month:    req.Month,
		Year:     req.Year,
		Name:     req.Name,
		Status:   req.Status,
		Stations: req.Stations,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, worksheet)
}

func (c *SchedulingAPIController) SetWorksheetStatus(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid worksheet id")
		return
	}
	var req dtos.SetWorksheetStatusRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid json body")
		return
	}

	worksheet, err := c.worksheets.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, worksheet)
}

func (c *SchedulingAPIController) DeleteWorksheet(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid worksheet id")
		return
	}
	if err := c.worksheets.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "worksheet deleted"})
}

// visibleWorksheet applies the published-only gate for non-managers. Drafts
// answer 404 rather than 403 so their existence is not leaked.
func (c *SchedulingAPIController) visibleWorksheet(w http.ResponseWriter, r *http.Request, requestID string, id int64, isManager bool) (services.Worksheet, bool) {
	worksheet, err := c.worksheets.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return services.Worksheet{}, false
	}
	if !isManager && worksheet.Status != services.StatusPublished {
		writeAPIError(w, http.StatusNotFound, requestID, "NOT_FOUND", "worksheet not found")
		return services.Worksheet{}, false
	}
	return worksheet, true
}

func (c *SchedulingAPIController) ListEntries(w http.ResponseWriter, r *http.Request) {
	claims, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid worksheet id")
		return
	}
	if _, ok := c.visibleWorksheet(w, r, requestID, id, claims.IsManager()); !ok {
		return
	}

	entries, err := c.worksheets.Entries(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewEntryResponses(entries))
}

func (c *SchedulingAPIController) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireManager(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid worksheet id")
		return
	}
	var req dtos.UpsertEntryRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid json body")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "day and workstation are required")
		return
	}

	entry, err := c.worksheets.UpsertEntry(r.Context(), id, req.Day, req.Workstation, req.EmployeeAssigned)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewEntryResponse(entry))
}

func (c *SchedulingAPIController) Schedule(w http.ResponseWriter, r *http.Request) {
	claims, requestID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "invalid worksheet id")
		return
	}

	employee := strings.TrimSpace(r.URL.Query().Get("employee"))
	if employee == "" {
		employee = claims.Name
	}
	if !claims.IsManager() && !strings.EqualFold(employee, strings.TrimSpace(claims.Name)) {
		writeAPIError(w, http.StatusForbidden, requestID, "FORBIDDEN", "employees may only view their own schedule")
		return
	}

	worksheet, ok := c.visibleWorksheet(w, r, requestID, id, claims.IsManager())
	if !ok {
		return
	}

	entries, err := c.worksheets.Entries(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	dayStations := services.ProjectForEmployee(entries, employee)

	view := r.URL.Query().Get("view")
	if view == "" {
		view = "monthly"
	}

	ref := time.Date(worksheet.Year, time.Month(worksheet.Month), 1, 0, 0, 0, 0, time.UTC)
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	payload := map[string]any{
		"worksheet_id": worksheet.ID,
		"employee":     employee,
		"month":        worksheet.Month,
		"year":         worksheet.Year,
		"view":         view,
		"days":         dayStations,
	}
	switch view {
	case "monthly":
		payload["calendar"] = services.ProjectMonthly(dayStations, worksheet.Month, worksheet.Year)
	case "weekly":
		payload["calendar"] = services.ProjectWeekly(dayStations, worksheet.Month, worksheet.Year, ref)
	case "daily":
		payload["calendar"] = services.ProjectDaily(dayStations, worksheet.Month, worksheet.Year, ref)
	default:
		writeAPIError(w, http.StatusBadRequest, requestID, "VALIDATION_ERROR", "view must be monthly, weekly or daily")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
