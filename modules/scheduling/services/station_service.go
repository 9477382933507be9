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

// Attributes describes station behavior beyond its label. MaxEmployees zero
// means unlimited.
type Attributes struct {
	MaxEmployees           int      `json:"max_employees"`
	Color                  string   `json:"color,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
	OverlapAllowed         bool     `json:"overlap_allowed"`
}

type Station struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	ShortCode    string     `json:"short_code"`
	DisplayOrder int        `json:"display_order"`
	Attributes   Attributes `json:"attributes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type StationRepository interface {
	List(ctx context.Context) ([]Station, error)
	GetByID(ctx context.Context, id int64) (Station, error)
	GetByName(ctx context.Context, name string) (Station, error)
	NextDisplayOrder(ctx context.Context) (int, error)
	Insert(ctx context.Context, s Station) (Station, error)
	Update(ctx context.Context, s Station) (Station, error)
	UpdateOrder(ctx context.Context, id int64, order int) error
	Delete(ctx context.Context, id int64) error
	CompactOrdersAbove(ctx context.Context, order int) error
}

type CreateStationInput struct {
	Name       string
	ShortCode  string
	Attributes Attributes
}

// AttributesPatch carries only the attribute keys the client sent. Nil fields
// keep their stored value (shallow merge).
type AttributesPatch struct {
	MaxEmployees           *int
	Color                  *string
	RequiredCertifications *[]string
	OverlapAllowed         *bool
}

type UpdateStationInput struct {
	Name       *string
	ShortCode  *string
	Attributes *AttributesPatch
}

type ReorderItem struct {
	ID    int64
	Order int
}

type StationCreatedEvent struct{ Station Station }
type StationUpdatedEvent struct{ Station Station }
type StationDeletedEvent struct{ ID int64 }
type StationsReorderedEvent struct{ Stations []Station }

type StationService struct {
	repo      StationRepository
	publisher eventbus.EventBus
}

func NewStationService(repo StationRepository, publisher eventbus.EventBus) *StationService {
	return &StationService{repo: repo, publisher: publisher}
}

func (s *StationService) publish(args ...interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(args...)
	}
}

func (s *StationService) List(ctx context.Context) ([]Station, error) {
	return s.repo.List(ctx)
}

func (s *StationService) GetByID(ctx context.Context, id int64) (Station, error) {
	station, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			return Station{}, newServiceError(http.StatusNotFound, "NOT_FOUND", "station not found", err)
		}
		return Station{}, err
	}
	return station, nil
}

func (s *StationService) Create(ctx context.Context, in CreateStationInput) (Station, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ShortCode = strings.TrimSpace(in.ShortCode)
	if in.Name == "" || in.ShortCode == "" {
		return Station{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "name and short_code are required", nil)
	}
	if in.Attributes.MaxEmployees < 0 {
		return Station{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "max_employees must not be negative", nil)
	}

	var created Station
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.NextDisplayOrder(txCtx)
		if err != nil {
			return err
		}
		created, err = s.repo.Insert(txCtx, Station{
			Name:         in.Name,
			ShortCode:    in.ShortCode,
			DisplayOrder: order,
			Attributes:   in.Attributes,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return Station{}, newServiceError(http.StatusConflict, "DUPLICATE_CODE", "short_code already in use", err)
		}
		return Station{}, err
	}
	s.publish(&StationCreatedEvent{Station: created})
	return created, nil
}

func (s *StationService) Update(ctx context.Context, id int64, in UpdateStationInput) (Station, error) {
	var updated Station
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		station, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "name must not be empty", nil)
			}
			station.Name = name
		}
		if in.ShortCode != nil {
			code := strings.TrimSpace(*in.ShortCode)
			if code == "" {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "short_code must not be empty", nil)
			}
			station.ShortCode = code
		}
		if in.Attributes != nil {
			station.Attributes = mergeAttributes(station.Attributes, *in.Attributes)
			if station.Attributes.MaxEmployees < 0 {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "max_employees must not be negative", nil)
			}
		}
		updated, err = s.repo.Update(txCtx, station)
		return err
	})
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return Station{}, err
		}
		if errors.Is(err, ErrStationNotFound) {
			return Station{}, newServiceError(http.StatusNotFound, "NOT_FOUND", "station not found", err)
		}
		if errors.Is(err, ErrDuplicateCode) {
			return Station{}, newServiceError(http.StatusConflict, "DUPLICATE_CODE", "short_code already in use", err)
		}
		return Station{}, err
	}
	s.publish(&StationUpdatedEvent{Station: updated})
	return updated, nil
}

// Reorder applies a full permutation of display orders in one transaction.
// The batch must cover every station exactly once with orders 0..N-1, so a
// rejected batch never leaves a partial reordering behind.
func (s *StationService) Reorder(ctx context.Context, items []ReorderItem) ([]Station, error) {
	if len(items) == 0 {
		return nil, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "stations list is required", nil)
	}

	var reordered []Station
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.List(txCtx)
		if err != nil {
			return err
		}
		if len(items) != len(existing) {
			return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "reorder must include every station exactly once", nil)
		}

		known := make(map[int64]bool, len(existing))
		for _, station := range existing {
			known[station.ID] = true
		}

		seenID := make(map[int64]bool, len(items))
		seenOrder := make(map[int]bool, len(items))
		for _, item := range items {
			if !known[item.ID] {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "unknown station id in reorder batch", ErrStationNotFound)
			}
			if seenID[item.ID] {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "duplicate station id in reorder batch", nil)
			}
			if item.Order < 0 || item.Order >= len(items) || seenOrder[item.Order] {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "orders must form a dense 0..N-1 sequence", nil)
			}
			seenID[item.ID] = true
			seenOrder[item.Order] = true
		}

		for _, item := range items {
			if err := s.repo.UpdateOrder(txCtx, item.ID, item.Order); err != nil {
				return err
			}
		}

		reordered, err = s.repo.List(txCtx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(&StationsReorderedEvent{Stations: reordered})
	return reordered, nil
}

// Delete removes the station and closes the display_order gap in the same
// transaction.
func (s *StationService) Delete(ctx context.Context, id int64) error {
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		station, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return s.repo.CompactOrdersAbove(txCtx, station.DisplayOrder)
	})
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			return newServiceError(http.StatusNotFound, "NOT_FOUND", "station not found", err)
		}
		return err
	}
	s.publish(&StationDeletedEvent{ID: id})
	return nil
}

func mergeAttributes(base Attributes, patch AttributesPatch) Attributes {
	if patch.MaxEmployees != nil {
		base.MaxEmployees = *patch.MaxEmployees
	}
	if patch.Color != nil {
		base.Color = *patch.Color
	}
	if patch.RequiredCertifications != nil {
		base.RequiredCertifications = *patch.RequiredCertifications
	}
	if patch.OverlapAllowed != nil {
		base.OverlapAllowed = *patch.OverlapAllowed
	}
	return base
}
