package dtos

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
)

var validate = validator.New()

// EmployeeList accepts either a JSON array of names or the legacy comma- or
// pipe-delimited string the original frontend sends.
type EmployeeList []string

func (l *EmployeeList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*l = names
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	joined = strings.ReplaceAll(joined, "|", ",")
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}

type AttributesRequest struct {
	MaxEmployees           *int      `json:"max_employees" validate:"omitempty,gte=0"`
	Color                  *string   `json:"color"`
	RequiredCertifications *[]string `json:"required_certifications"`
	OverlapAllowed         *bool     `json:"overlap_allowed"`
}

type CreateStationRequest struct {
	Name       string             `json:"name" validate:"required"`
	ShortCode  string             `json:"short_code" validate:"required"`
	Attributes *AttributesRequest `json:"attributes"`
}

func (r *CreateStationRequest) Validate() error {
	return validate.Struct(r)
}

func (r *CreateStationRequest) ToInput() services.CreateStationInput {
	in := services.CreateStationInput{Name: r.Name, ShortCode: r.ShortCode}
	if r.Attributes != nil {
		if r.Attributes.MaxEmployees != nil {
			in.Attributes.MaxEmployees = *r.Attributes.MaxEmployees
		}
		if r.Attributes.Color != nil {
			in.Attributes.Color = *r.Attributes.Color
		}
		if r.Attributes.RequiredCertifications != nil {
			in.Attributes.RequiredCertifications = *r.Attributes.RequiredCertifications
		}
		if r.Attributes.OverlapAllowed != nil {
			in.Attributes.OverlapAllowed = *r.Attributes.OverlapAllowed
		}
	}
	return in
}

type UpdateStationRequest struct {
	Name       *string            `json:"name"`
	ShortCode  *string            `json:"short_code"`
	Attributes *AttributesRequest `json:"attributes"`
}

func (r *UpdateStationRequest) ToInput() services.UpdateStationInput {
	in := services.UpdateStationInput{Name: r.Name, ShortCode: r.ShortCode}
	if r.Attributes != nil {
		in.Attributes = &services.AttributesPatch{
			MaxEmployees:           r.Attributes.MaxEmployees,
			Color:                  r.Attributes.Color,
			RequiredCertifications: r.Attributes.RequiredCertifications,
			OverlapAllowed:         r.Attributes.OverlapAllowed,
		}
	}
	return in
}

type ReorderItemRequest struct {
	ID    int64 `json:"id" validate:"required"`
	Order *int  `json:"order" validate:"required"`
}

type ReorderStationsRequest struct {
	Stations []ReorderItemRequest `json:"stations" validate:"required,min=1,dive"`
}

func (r *ReorderStationsRequest) Validate() error {
	return validate.Struct(r)
}

func (r *ReorderStationsRequest) ToItems() []services.ReorderItem {
	items := make([]services.ReorderItem, 0, len(r.Stations))
	for _, s := range r.Stations {
		order := 0
		if s.Order != nil {
			order = *s.Order
		}
		items = append(items, services.ReorderItem{ID: s.ID, Order: order})
	}
	return items
}

type CreateWorksheetRequest struct {
	Month    int      `json:"month" validate:"required,min=1,max=12"`
	Year     int      `json:"year" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Status   string   `json:"status" validate:"omitempty,oneof=draft published"`
	Stations []string `json:"stations"`
}

func (r *CreateWorksheetRequest) Validate() error {
	return validate.Struct(r)
}

type SetWorksheetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published"`
}

type UpsertEntryRequest struct {
	Day              int          `json:"day" validate:"required,min=1,max=31"`
	Workstation      string       `json:"workstation" validate:"required"`
	EmployeeAssigned EmployeeList `json:"employee_assigned"`
}

func (r *UpsertEntryRequest) Validate() error {
	return validate.Struct(r)
}

// EntryResponse mirrors services.WorksheetEntry and adds the joined legacy
// string form of the employee list.
type EntryResponse struct {
	services.WorksheetEntry
	EmployeeAssigned string `json:"employee_assigned"`
}

func NewEntryResponse(e services.WorksheetEntry) EntryResponse {
	return EntryResponse{
		WorksheetEntry:   e,
		EmployeeAssigned: strings.Join(e.Employees, ","),
	}
}

func NewEntryResponses(entries []services.WorksheetEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewEntryResponse(e))
	}
	return out
}
