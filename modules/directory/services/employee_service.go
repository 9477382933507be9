package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shiftopia/shiftopia/pkg/composables"
	"github.com/shiftopia/shiftopia/pkg/eventbus"
)

// Employee is a directory record. PasswordHash never leaves the service
// layer in serialized form.
type Employee struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Username          string         `json:"username"`
	Email             string         `json:"email"`
	Role              string         `json:"role"`
	Phone             string         `json:"phone"`
	PasswordHash      string         `json:"-"`
	ColumnPreferences map[string]any `json:"column_preferences"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type EmployeeRepository interface {
	List(ctx context.Context) ([]Employee, error)
	GetByID(ctx context.Context, id int64) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	GetByUsername(ctx context.Context, username string) (Employee, error)
	Insert(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, e Employee) (Employee, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdatePreferences(ctx context.Context, id int64, prefs map[string]any) (Employee, error)
	Delete(ctx context.Context, id int64) error
}

type CreateEmployeeInput struct {
	Name     string
	Username string
	Email    string
	Role     string
	Phone    string
	Password string
}

type UpdateEmployeeInput struct {
	Name  *string
	Email *string
	Role  *string
	Phone *string
}

type EmployeeCreatedEvent struct{ Employee Employee }
type EmployeeUpdatedEvent struct{ Employee Employee }
type EmployeeDeletedEvent struct{ ID int64 }

type EmployeeService struct {
	repo      EmployeeRepository
	publisher eventbus.EventBus
}

func NewEmployeeService(repo EmployeeRepository, publisher eventbus.EventBus) *EmployeeService {
	return &EmployeeService{repo: repo, publisher: publisher}
}

func (s *EmployeeService) publish(args ...interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(args...)
	}
}

func (s *EmployeeService) List(ctx context.Context) ([]Employee, error) {
	return s.repo.List(ctx)
}

func (s *EmployeeService) GetByID(ctx context.Context, id int64) (Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Employee{}, wrapEmployeeErr(err)
	}
	return e, nil
}

func (s *EmployeeService) GetByEmail(ctx context.Context, email string) (Employee, error) {
	e, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return Employee{}, wrapEmployeeErr(err)
	}
	return e, nil
}

func (s *EmployeeService) Create(ctx context.Context, in CreateEmployeeInput) (Employee, error) {
	name := strings.TrimSpace(in.Name)
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if name == "" || username == "" || email == "" {
		return Employee{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "name, username and email are required", nil)
	}
	if len(in.Password) < 8 {
		return Employee{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "password must be at least 8 characters", nil)
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = "employee"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Employee{}, err
	}

	var created Employee
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		created, err = s.repo.Insert(txCtx, Employee{
			Name:              name,
			Username:          username,
			Email:             email,
			Role:              role,
			Phone:             strings.TrimSpace(in.Phone),
			PasswordHash:      string(hash),
			ColumnPreferences: map[string]any{},
		})
		return err
	})
	if err != nil {
		return Employee{}, wrapEmployeeErr(err)
	}
	s.publish(&EmployeeCreatedEvent{Employee: created})
	return created, nil
}

func (s *EmployeeService) Update(ctx context.Context, id int64, in UpdateEmployeeInput) (Employee, error) {
	var updated Employee
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "name must not be empty", nil)
			}
			current.Name = name
		}
		if in.Email != nil {
			email := strings.TrimSpace(*in.Email)
			if email == "" {
				return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "email must not be empty", nil)
			}
			current.Email = email
		}
		if in.Role != nil {
			current.Role = strings.TrimSpace(*in.Role)
		}
		if in.Phone != nil {
			// An explicit empty string clears the number.
			current.Phone = strings.TrimSpace(*in.Phone)
		}
		updated, err = s.repo.Update(txCtx, current)
		return err
	})
	if err != nil {
		return Employee{}, wrapEmployeeErr(err)
	}
	s.publish(&EmployeeUpdatedEvent{Employee: updated})
	return updated, nil
}

// UpdatePreferences merges the provided keys into the stored preference
// map. Keys absent from prefs keep their stored values.
func (s *EmployeeService) UpdatePreferences(ctx context.Context, id int64, prefs map[string]any) (Employee, error) {
	var updated Employee
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		merged := make(map[string]any, len(current.ColumnPreferences)+len(prefs))
		for k, v := range current.ColumnPreferences {
			merged[k] = v
		}
		for k, v := range prefs {
			merged[k] = v
		}
		updated, err = s.repo.UpdatePreferences(txCtx, id, merged)
		return err
	})
	if err != nil {
		return Employee{}, wrapEmployeeErr(err)
	}
	s.publish(&EmployeeUpdatedEvent{Employee: updated})
	return updated, nil
}

func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return wrapEmployeeErr(err)
	}
	s.publish(&EmployeeDeletedEvent{ID: id})
	return nil
}

func wrapEmployeeErr(err error) error {
	var svcErr *ServiceError
	switch {
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, ErrEmployeeNotFound):
		return newServiceError(http.StatusNotFound, "NOT_FOUND", "employee not found", err)
	case errors.Is(err, ErrDuplicateEmail):
		return newServiceError(http.StatusConflict, "DUPLICATE_EMAIL", "email already in use", err)
	case errors.Is(err, ErrDuplicateUsername):
		return newServiceError(http.StatusConflict, "DUPLICATE_USERNAME", "username already in use", err)
	default:
		return err
	}
}
