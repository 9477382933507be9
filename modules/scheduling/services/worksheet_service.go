package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shiftopia/shiftopia/pkg/composables"
	"github.com/shiftopia/shiftopia/pkg/eventbus"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Worksheet is one scheduling period. Stations holds the station-name
// snapshot captured at creation time; later registry edits do not touch it.
type Worksheet struct {
	ID        int64     `json:"id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Stations  []string  `json:"stations"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorksheetEntry is one cell of the assignment grid: the employees working
// one station on one day.
type WorksheetEntry struct {
	ID          int64     `json:"id"`
	WorksheetID int64     `json:"worksheet_id"`
	Day         int       `json:"day"`
	Workstation string    `json:"workstation"`
	Employees   []string  `json:"employees"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WorksheetRepository interface {
	List(ctx context.Context) ([]Worksheet, error)
	GetByID(ctx context.Context, id int64) (Worksheet, error)
	Insert(ctx context.Context, w Worksheet) (Worksheet, error)
	UpdateStatus(ctx context.Context, id int64, status string) (Worksheet, error)
	Delete(ctx context.Context, id int64) error
	ListEntries(ctx context.Context, worksheetID int64) ([]WorksheetEntry, error)
	UpsertEntry(ctx context.Context, e WorksheetEntry) (WorksheetEntry, error)
	DeleteEntry(ctx context.Context, worksheetID int64, day int, workstation string) error
}

type CreateWorksheetInput struct {
	Month    int
	Year     int
	Name     string
	Status   string
	Stations []string
}

type WorksheetCreatedEvent struct{ Worksheet Worksheet }
type WorksheetStatusChangedEvent struct{ Worksheet Worksheet }
type WorksheetDeletedEvent struct{ ID int64 }
type EntryUpsertedEvent struct{ Entry WorksheetEntry }

type WorksheetService struct {
	repo      WorksheetRepository
	stations  StationRepository
	publisher eventbus.EventBus
}

func NewWorksheetService(repo WorksheetRepository, stations StationRepository, publisher eventbus.EventBus) *WorksheetService {
	return &WorksheetService{repo: repo, stations: stations, publisher: publisher}
}

func (s *WorksheetService) publish(args ...interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(args...)
	}
}

// List returns worksheets ordered by year desc, month desc. With includeDrafts
// false only published worksheets come back.
func (s *WorksheetService) List(ctx context.Context, includeDrafts bool) ([]Worksheet, error) {
	worksheets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if includeDrafts {
		return worksheets, nil
	}
	published := make([]Worksheet, 0, len(worksheets))
	for _, w := range worksheets {
		if w.Status == StatusPublished {
			published = append(published, w)
		}
	}
	return published, nil
}

func (s *WorksheetService) GetByID(ctx context.Context, id int64) (Worksheet, error) {
	worksheet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorksheetNotFound) {
			return Worksheet{}, newServiceError(http.StatusNotFound, "NOT_FOUND", "worksheet not found", err)
		}
		return Worksheet{}, err
	}
	return worksheet, nil
}

// Create snapshots the current station registry ordering into the worksheet
// unless the caller supplied an explicit stations list (legacy import path).
func (s *WorksheetService) Create(ctx context.Context, in CreateWorksheetInput) (Worksheet, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Year == 0 || in.Month == 0 {
		return Worksheet{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "month, year and name are required", nil)
	}
	if in.Month < 1 || in.Month > 12 {
		return Worksheet{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "month must be between 1 and 12", nil)
	}
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if status != StatusDraft && status != StatusPublished {
		return Worksheet{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "status must be draft or published", nil)
	}

	var created Worksheet
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		snapshot := trimAll(in.Stations)
		if len(snapshot) == 0 {
			registry, err := s.stations.List(txCtx)
			if err != nil {
				return err
			}
			snapshot = make([]string, 0, len(registry))
			for _, station := range registry {
				snapshot = append(snapshot, station.Name)
			}
		}
		var err error
		created, err = s.repo.Insert(txCtx, Worksheet{
			Month:    in.Month,
			Year:     in.Year,
			Name:     in.Name,
			Status:   status,
			Stations: snapshot,
		})
		return err
	})
	if err != nil {
		return Worksheet{}, err
	}
	s.publish(&WorksheetCreatedEvent{Worksheet: created})
	return created, nil
}

// SetStatus toggles draft and published. Entries are untouched either way.
func (s *WorksheetService) SetStatus(ctx context.Context, id int64, status string) (Worksheet, error) {
	if status != StatusDraft && status != StatusPublished {
		return Worksheet{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "status must be draft or published", nil)
	}
	worksheet, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, ErrWorksheetNotFound) {
			return Worksheet{}, newServiceError(http.StatusNotFound, "NOT_FOUND", "worksheet not found", err)
		}
		return Worksheet{}, err
	}
	s.publish(&WorksheetStatusChangedEvent{Worksheet: worksheet})
	return worksheet, nil
}

func (s *WorksheetService) Delete(ctx context.Context, id int64) error {
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		if errors.Is(err, ErrWorksheetNotFound) {
			return newServiceError(http.StatusNotFound, "NOT_FOUND", "worksheet not found", err)
		}
		return err
	}
	s.publish(&WorksheetDeletedEvent{ID: id})
	return nil
}

// Entries returns the assignment grid sorted by (day, workstation).
func (s *WorksheetService) Entries(ctx context.Context, worksheetID int64) ([]WorksheetEntry, error) {
	if _, err := s.GetByID(ctx, worksheetID); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, worksheetID)
}

// UpsertEntry validates and writes one grid cell. The whole operation runs in
// a single transaction keyed by (worksheet, day, workstation); a failed
// validation leaves the prior cell value intact. An empty employee list after
// dedupe blanks the cell.
func (s *WorksheetService) UpsertEntry(ctx context.Context, worksheetID int64, day int, workstation string, employees []string) (WorksheetEntry, error) {
	workstation = strings.TrimSpace(workstation)
	if workstation == "" {
		return WorksheetEntry{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "workstation is required", nil)
	}

	var result WorksheetEntry
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		worksheet, err := s.repo.GetByID(txCtx, worksheetID)
		if err != nil {
			return err
		}

		if !snapshotContains(worksheet.Stations, workstation) {
			return newServiceError(http.StatusBadRequest, "INVALID_STATION", "workstation is not part of this worksheet", nil)
		}

		if day < 1 || day > daysIn(worksheet.Month, worksheet.Year) {
			return newServiceError(http.StatusBadRequest, "INVALID_DAY", "day is outside the worksheet month", nil)
		}

		deduped := dedupeEmployees(employees)

		if err := s.checkCapacity(txCtx, workstation, len(deduped)); err != nil {
			return err
		}

		if len(deduped) == 0 {
			if err := s.repo.DeleteEntry(txCtx, worksheetID, day, workstation); err != nil && !errors.Is(err, ErrEntryNotFound) {
				return err
			}
			result = WorksheetEntry{WorksheetID: worksheetID, Day: day, Workstation: workstation, Employees: []string{}}
			return nil
		}

		result, err = s.repo.UpsertEntry(txCtx, WorksheetEntry{
			WorksheetID: worksheetID,
			Day:         day,
			Workstation: workstation,
			Employees:   deduped,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrWorksheetNotFound) {
			return WorksheetEntry{}, newServiceError(http.StatusNotFound, "NOT_FOUND", "worksheet not found", err)
		}
		return WorksheetEntry{}, err
	}
	s.publish(&EntryUpsertedEvent{Entry: result})
	return result, nil
}

// checkCapacity resolves the station by name against the live registry. A
// snapshot name with no live station has no capacity limit.
func (s *WorksheetService) checkCapacity(ctx context.Context, workstation string, count int) error {
	station, err := s.stations.GetByName(ctx, workstation)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			return nil
		}
		return err
	}
	if station.Attributes.MaxEmployees > 0 && count > station.Attributes.MaxEmployees {
		return newServiceError(http.StatusBadRequest, "CAPACITY_EXCEEDED", "too many employees for this station", nil)
	}
	return nil
}

// dedupeEmployees trims names and drops case-insensitive duplicates,
// preserving first-seen order.
func dedupeEmployees(employees []string) []string {
	out := make([]string, 0, len(employees))
	seen := make(map[string]bool, len(employees))
	for _, name := range employees {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func snapshotContains(stations []string, workstation string) bool {
	for _, name := range stations {
		if strings.TrimSpace(name) == workstation {
			return true
		}
	}
	return false
}

func daysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
