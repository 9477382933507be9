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
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestDenied   = "denied"
)

type TimeoffRequest struct {
	ID        int64     `json:"id"`
	Employee  string    `json:"employee"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TimeoffRepository interface {
	List(ctx context.Context) ([]TimeoffRequest, error)
	ListByEmployee(ctx context.Context, employee string) ([]TimeoffRequest, error)
	GetByID(ctx context.Context, id int64) (TimeoffRequest, error)
	Insert(ctx context.Context, r TimeoffRequest) (TimeoffRequest, error)
	UpdateStatus(ctx context.Context, id int64, status string) (TimeoffRequest, error)
}

type CreateTimeoffInput struct {
	Employee  string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

type TimeoffRequestedEvent struct{ Request TimeoffRequest }
type TimeoffResolvedEvent struct{ Request TimeoffRequest }

type TimeoffService struct {
	repo      TimeoffRepository
	publisher eventbus.EventBus
}

func NewTimeoffService(repo TimeoffRepository, publisher eventbus.EventBus) *TimeoffService {
	return &TimeoffService{repo: repo, publisher: publisher}
}

func (s *TimeoffService) publish(args ...interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(args...)
	}
}

// List returns every request when employee is empty, otherwise only the
// requests filed under that employee name.
func (s *TimeoffService) List(ctx context.Context, employee string) ([]TimeoffRequest, error) {
	employee = strings.TrimSpace(employee)
	if employee == "" {
		return s.repo.List(ctx)
	}
	return s.repo.ListByEmployee(ctx, employee)
}

func (s *TimeoffService) Create(ctx context.Context, in CreateTimeoffInput) (TimeoffRequest, error) {
	employee := strings.TrimSpace(in.Employee)
	if employee == "" {
		return TimeoffRequest{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "employee is required", nil)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return TimeoffRequest{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "start_date and end_date are required", nil)
	}
	if in.EndDate.Before(in.StartDate) {
		return TimeoffRequest{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "end_date must not precede start_date", nil)
	}

	var created TimeoffRequest
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Insert(txCtx, TimeoffRequest{
			Employee:  employee,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Reason:    strings.TrimSpace(in.Reason),
			Status:    RequestPending,
		})
		return err
	})
	if err != nil {
		return TimeoffRequest{}, err
	}
	s.publish(&TimeoffRequestedEvent{Request: created})
	return created, nil
}

func (s *TimeoffService) Approve(ctx context.Context, id int64) (TimeoffRequest, error) {
	return s.resolve(ctx, id, RequestApproved)
}

func (s *TimeoffService) Deny(ctx context.Context, id int64) (TimeoffRequest, error) {
	return s.resolve(ctx, id, RequestDenied)
}

// resolve moves a pending request to a terminal status. Requests already
// approved or denied stay as they are.
func (s *TimeoffService) resolve(ctx context.Context, id int64, status string) (TimeoffRequest, error) {
	var resolved TimeoffRequest
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if current.Status != RequestPending {
			return newServiceError(http.StatusConflict, "INVALID_STATUS", "request has already been resolved", nil)
		}
		resolved, err = s.repo.UpdateStatus(txCtx, id, status)
		return err
	})
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return TimeoffRequest{}, err
		}
		if errors.Is(err, ErrRequestNotFound) {
			return TimeoffRequest{}, newServiceError(http.StatusNotFound, "NOT_FOUND", "time-off request not found", err)
		}
		return TimeoffRequest{}, err
	}
	s.publish(&TimeoffResolvedEvent{Request: resolved})
	return resolved, nil
}
