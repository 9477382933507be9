package services

import (
	"context"
	"sort"

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

type memStationRepo struct {
	nextID   int64
	stations []Station
}

func newMemStationRepo() *memStationRepo {
	return &memStationRepo{}
}

func (r *memStationRepo) List(context.Context) ([]Station, error) {
	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *memStationRepo) GetByID(_ context.Context, id int64) (Station, error) {
	for _, s := range r.stations {
		if s.ID == id {
			return s, nil
		}
	}
	return Station{}, ErrStationNotFound
}

func (r *memStationRepo) GetByName(_ context.Context, name string) (Station, error) {
	for _, s := range r.stations {
		if s.Name == name {
			return s, nil
		}
	}
	return Station{}, ErrStationNotFound
}

func (r *memStationRepo) NextDisplayOrder(context.Context) (int, error) {
	next := 0
	for _, s := range r.stations {
		if s.DisplayOrder+1 > next {
			next = s.DisplayOrder + 1
		}
	}
	return next, nil
}

func (r *memStationRepo) Insert(_ context.Context, s Station) (Station, error) {
	for _, existing := range r.stations {
		if existing.ShortCode == s.ShortCode {
			return Station{}, ErrDuplicateCode
		}
	}
	r.nextID++
	s.ID = r.nextID
	r.stations = append(r.stations, s)
	return s, nil
}

func (r *memStationRepo) Update(_ context.Context, s Station) (Station, error) {
	for i, existing := range r.stations {
		if existing.ID == s.ID {
			for _, other := range r.stations {
				if other.ID != s.ID && other.ShortCode == s.ShortCode {
					return Station{}, ErrDuplicateCode
				}
			}
			r.stations[i] = s
			return s, nil
		}
	}
	return Station{}, ErrStationNotFound
}

func (r *memStationRepo) UpdateOrder(_ context.Context, id int64, order int) error {
	for i, s := range r.stations {
		if s.ID == id {
			r.stations[i].DisplayOrder = order
			return nil
		}
	}
	return ErrStationNotFound
}

func (r *memStationRepo) Delete(_ context.Context, id int64) error {
	for i, s := range r.stations {
		if s.ID == id {
			r.stations = append(r.stations[:i], r.stations[i+1:]...)
			return nil
		}
	}
	return ErrStationNotFound
}

func (r *memStationRepo) CompactOrdersAbove(_ context.Context, order int) error {
	for i, s := range r.stations {
		if s.DisplayOrder > order {
			r.stations[i].DisplayOrder--
		}
	}
	return nil
}

type entryKey struct {
	worksheetID int64
	day         int
	workstation string
}

type memWorksheetRepo struct {
	nextID     int64
	worksheets []Worksheet
	entries    map[entryKey]WorksheetEntry
}

func newMemWorksheetRepo() *memWorksheetRepo {
	return &memWorksheetRepo{entries: make(map[entryKey]WorksheetEntry)}
}

func (r *memWorksheetRepo) List(context.Context) ([]Worksheet, error) {
	out := make([]Worksheet, len(r.worksheets))
	copy(out, r.worksheets)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (r *memWorksheetRepo) GetByID(_ context.Context, id int64) (Worksheet, error) {
	for _, w := range r.worksheets {
		if w.ID == id {
			return w, nil
		}
	}
	return Worksheet{}, ErrWorksheetNotFound
}

func (r *memWorksheetRepo) Insert(_ context.Context, w Worksheet) (Worksheet, error) {
	r.nextID++
	w.ID = r.nextID
	r.worksheets = append(r.worksheets, w)
	return w, nil
}

func (r *memWorksheetRepo) UpdateStatus(_ context.Context, id int64, status string) (Worksheet, error) {
	for i, w := range r.worksheets {
		if w.ID == id {
			r.worksheets[i].Status = status
			return r.worksheets[i], nil
		}
	}
	return Worksheet{}, ErrWorksheetNotFound
}

func (r *memWorksheetRepo) Delete(_ context.Context, id int64) error {
	for i, w := range r.worksheets {
		if w.ID == id {
			r.worksheets = append(r.worksheets[:i], r.worksheets[i+1:]...)
			for key := range r.entries {
				if key.worksheetID == id {
					delete(r.entries, key)
				}
			}
			return nil
		}
	}
	return ErrWorksheetNotFound
}

func (r *memWorksheetRepo) ListEntries(_ context.Context, worksheetID int64) ([]WorksheetEntry, error) {
	out := make([]WorksheetEntry, 0, len(r.entries))
	for key, entry := range r.entries {
		if key.worksheetID == worksheetID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Workstation < out[j].Workstation
	})
	return out, nil
}

func (r *memWorksheetRepo) UpsertEntry(_ context.Context, e WorksheetEntry) (WorksheetEntry, error) {
	key := entryKey{worksheetID: e.WorksheetID, day: e.Day, workstation: e.Workstation}
	if existing, ok := r.entries[key]; ok {
		e.ID = existing.ID
	} else {
		r.nextID++
		e.ID = r.nextID
	}
	r.entries[key] = e
	return e, nil
}

func (r *memWorksheetRepo) DeleteEntry(_ context.Context, worksheetID int64, day int, workstation string) error {
	key := entryKey{worksheetID: worksheetID, day: day, workstation: workstation}
	if _, ok := r.entries[key]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, key)
	return nil
}
