package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func requireServiceError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, status, svcErr.Status)
	assert.Equal(t, code, svcErr.Code)
}

func TestStationService_CreateAssignsDenseOrders(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	for i, in := range []CreateStationInput{
		{Name: "Front Counter", ShortCode: "FC"},
		{Name: "Drive Through", ShortCode: "DT"},
		{Name: "Kitchen", ShortCode: "KT"},
	} {
		created, err := svc.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, i, created.DisplayOrder)
	}

	stations, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 3)
	for i, s := range stations {
		assert.Equal(t, i, s.DisplayOrder)
	}
}

func TestStationService_CreateValidation(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	_, err := svc.Create(ctx, CreateStationInput{Name: "  ", ShortCode: "FC"})
	requireServiceError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	_, err = svc.Create(ctx, CreateStationInput{Name: "Front", ShortCode: "FC", Attributes: Attributes{MaxEmployees: -1}})
	requireServiceError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestStationService_CreateDuplicateCode(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	_, err := svc.Create(ctx, CreateStationInput{Name: "Front Counter", ShortCode: "FC"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateStationInput{Name: "Food Court", ShortCode: "FC"})
	requireServiceError(t, err, http.StatusConflict, "DUPLICATE_CODE")
}

func TestStationService_UpdateMergesAttributes(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	created, err := svc.Create(ctx, CreateStationInput{
		Name:      "Kitchen",
		ShortCode: "KT",
		Attributes: Attributes{
			MaxEmployees: 4,
			Color:        "#ff0000",
		},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateStationInput{
		Attributes: &AttributesPatch{MaxEmployees: ptr(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Attributes.MaxEmployees)
	assert.Equal(t, "#ff0000", updated.Attributes.Color, "untouched attribute keys keep their values")
}

func TestStationService_UpdateUnknownStation(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	_, err := svc.Update(ctx, 42, UpdateStationInput{Name: ptr("Grill")})
	requireServiceError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestStationService_DeleteCompactsOrders(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	var ids []int64
	for _, in := range []CreateStationInput{
		{Name: "Front Counter", ShortCode: "FC"},
		{Name: "Drive Through", ShortCode: "DT"},
		{Name: "Kitchen", ShortCode: "KT"},
	} {
		created, err := svc.Create(ctx, in)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	require.NoError(t, svc.Delete(ctx, ids[1]))

	stations, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "Front Counter", stations[0].Name)
	assert.Equal(t, 0, stations[0].DisplayOrder)
	assert.Equal(t, "Kitchen", stations[1].Name)
	assert.Equal(t, 1, stations[1].DisplayOrder, "orders above the deleted station shift down")
}

func TestStationService_ReorderAppliesPermutation(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	first, err := svc.Create(ctx, CreateStationInput{Name: "Front Counter", ShortCode: "FC"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateStationInput{Name: "Drive Through", ShortCode: "DT"})
	require.NoError(t, err)

	reordered, err := svc.Reorder(ctx, []ReorderItem{
		{ID: first.ID, Order: 1},
		{ID: second.ID, Order: 0},
	})
	require.NoError(t, err)
	require.Len(t, reordered, 2)
	assert.Equal(t, "Drive Through", reordered[0].Name)
	assert.Equal(t, "Front Counter", reordered[1].Name)
}

func TestStationService_ReorderValidation(t *testing.T) {
	ctx := testCtx()
	svc := NewStationService(newMemStationRepo(), nil)

	first, err := svc.Create(ctx, CreateStationInput{Name: "Front Counter", ShortCode: "FC"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateStationInput{Name: "Drive Through", ShortCode: "DT"})
	require.NoError(t, err)

	cases := []struct {
		name  string
		items []ReorderItem
	}{
		{"empty batch", nil},
		{"missing station", []ReorderItem{{ID: first.ID, Order: 0}}},
		{"unknown id", []ReorderItem{{ID: first.ID, Order: 0}, {ID: 99, Order: 1}}},
		{"duplicate id", []ReorderItem{{ID: first.ID, Order: 0}, {ID: first.ID, Order: 1}}},
		{"duplicate order", []ReorderItem{{ID: first.ID, Order: 0}, {ID: second.ID, Order: 0}}},
		{"sparse orders", []ReorderItem{{ID: first.ID, Order: 0}, {ID: second.ID, Order: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Reorder(ctx, tc.items)
			requireServiceError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
		})
	}

	// A rejected batch must not change the stored ordering.
	stations, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Front Counter", stations[0].Name)
	assert.Equal(t, "Drive Through", stations[1].Name)
}
