package dtos

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
)

func TestEmployeeList_UnmarshalArray(t *testing.T) {
	var l EmployeeList
	require.NoError(t, json.Unmarshal([]byte(`["Alice","Bob"]`), &l))
	assert.Equal(t, EmployeeList{"Alice", "Bob"}, l)
}

func TestEmployeeList_UnmarshalDelimitedString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want EmployeeList
	}{
		{"comma", `"Alice, Bob"`, EmployeeList{"Alice", "Bob"}},
		{"pipe", `"Alice|Bob|Carol"`, EmployeeList{"Alice", "Bob", "Carol"}},
		{"mixed", `"Alice, Bob|Carol"`, EmployeeList{"Alice", "Bob", "Carol"}},
		{"blank segments", `"Alice,,  ,Bob"`, EmployeeList{"Alice", "Bob"}},
		{"empty", `""`, EmployeeList{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l EmployeeList
			require.NoError(t, json.Unmarshal([]byte(tc.in), &l))
			assert.Equal(t, tc.want, l)
		})
	}
}

func TestEmployeeList_UnmarshalRejectsOtherShapes(t *testing.T) {
	var l EmployeeList
	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &l))
}

func TestCreateStationRequest_Validate(t *testing.T) {
	req := &CreateStationRequest{Name: "Front Counter", ShortCode: "FC"}
	require.NoError(t, req.Validate())

	req = &CreateStationRequest{Name: "Front Counter"}
	assert.Error(t, req.Validate())

	neg := -1
	req = &CreateStationRequest{Name: "n", ShortCode: "c", Attributes: &AttributesRequest{MaxEmployees: &neg}}
	assert.Error(t, req.Validate())
}

func TestCreateStationRequest_ToInput(t *testing.T) {
	max := 3
	color := "#00ff00"
	req := &CreateStationRequest{
		Name:      "Kitchen",
		ShortCode: "KT",
		Attributes: &AttributesRequest{
			MaxEmployees: &max,
			Color:        &color,
		},
	}
	in := req.ToInput()
	assert.Equal(t, 3, in.Attributes.MaxEmployees)
	assert.Equal(t, "#00ff00", in.Attributes.Color)
	assert.False(t, in.Attributes.OverlapAllowed)
}

func TestReorderStationsRequest_Validate(t *testing.T) {
	zero := 0
	one := 1
	req := &ReorderStationsRequest{Stations: []ReorderItemRequest{
		{ID: 1, Order: &one},
		{ID: 2, Order: &zero},
	}}
	require.NoError(t, req.Validate())

	items := req.ToItems()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Order)
	assert.Equal(t, 0, items[1].Order)

	empty := &ReorderStationsRequest{}
	assert.Error(t, empty.Validate())

	missingOrder := &ReorderStationsRequest{Stations: []ReorderItemRequest{{ID: 1}}}
	assert.Error(t, missingOrder.Validate())
}

func TestCreateWorksheetRequest_Validate(t *testing.T) {
	req := &CreateWorksheetRequest{Month: 3, Year: 2025, Name: "March"}
	require.NoError(t, req.Validate())

	req = &CreateWorksheetRequest{Month: 13, Year: 2025, Name: "x"}
	assert.Error(t, req.Validate())

	req = &CreateWorksheetRequest{Month: 3, Year: 2025, Name: "x", Status: "archived"}
	assert.Error(t, req.Validate())
}

func TestNewEntryResponseJoinsEmployees(t *testing.T) {
	resp := NewEntryResponse(services.WorksheetEntry{Employees: []string{"Alice", "Bob"}})
	assert.Equal(t, "Alice,Bob", resp.EmployeeAssigned)

	empty := NewEntryResponse(services.WorksheetEntry{})
	assert.Equal(t, "", empty.EmployeeAssigned)
}
