package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shiftopia/shiftopia/modules/directory/services"
)

var validate = validator.New()

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

type ChangePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (r *ChangePasswordRequest) Validate() error {
	return validate.Struct(r)
}

type CreateEmployeeRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"omitempty,oneof=manager employee"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r *CreateEmployeeRequest) Validate() error {
	return validate.Struct(r)
}

func (r *CreateEmployeeRequest) ToInput() services.CreateEmployeeInput {
	return services.CreateEmployeeInput{
		Name:     r.Name,
		Username: r.Username,
		Email:    r.Email,
		Role:     r.Role,
		Phone:    r.Phone,
		Password: r.Password,
	}
}

type UpdateEmployeeRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=manager employee"`
	Phone *string `json:"phone"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	return validate.Struct(r)
}

func (r *UpdateEmployeeRequest) ToInput() services.UpdateEmployeeInput {
	return services.UpdateEmployeeInput{
		Name:  r.Name,
		Email: r.Email,
		Role:  r.Role,
		Phone: r.Phone,
	}
}

type UpdatePreferencesRequest struct {
	ColumnPreferences map[string]any `json:"column_preferences" validate:"required"`
}

func (r *UpdatePreferencesRequest) Validate() error {
	return validate.Struct(r)
}

type CreateTimeoffRequest struct {
	Employee  string `json:"employee"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason"`
}

func (r *CreateTimeoffRequest) Validate() error {
	return validate.Struct(r)
}

// ToInput parses the date strings in the 2006-01-02 layout.
func (r *CreateTimeoffRequest) ToInput() (services.CreateTimeoffInput, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return services.CreateTimeoffInput{}, err
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return services.CreateTimeoffInput{}, err
	}
	return services.CreateTimeoffInput{
		Employee:  r.Employee,
		StartDate: start,
		EndDate:   end,
		Reason:    r.Reason,
	}, nil
}
