package persistence_test

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
	"github.com/shiftopia/shiftopia/pkg/configuration"
	"github.com/shiftopia/shiftopia/pkg/itf"
)

func requirePostgres(t *testing.T) {
	t.Helper()
	c := configuration.Use()
	db, err := sql.Open("postgres", fmt.Sprintf(
		"host=%s port=%s user=%s dbname=postgres password=%s sslmode=disable connect_timeout=2",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
	))
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
}

func TestStationRepository_RoundTrip(t *testing.T) {
	requirePostgres(t)
	env := itf.NewTestContext().Build(t)

	stations := itf.GetService[services.StationService](env)

	created, err := stations.Create(env.Ctx, services.CreateStationInput{
		Name:      "Front Counter",
		ShortCode: "FC",
		Attributes: services.Attributes{
			MaxEmployees:           3,
			Color:                  "#336699",
			RequiredCertifications: []string{"food-safety"},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, 0, created.DisplayOrder)

	got, err := stations.GetByID(env.Ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Front Counter", got.Name)
	assert.Equal(t, 3, got.Attributes.MaxEmployees)
	assert.Equal(t, []string{"food-safety"}, got.Attributes.RequiredCertifications)

	_, err = stations.Create(env.Ctx, services.CreateStationInput{Name: "Food Court", ShortCode: "FC"})
	var svcErr *services.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "DUPLICATE_CODE", svcErr.Code)
}

func TestWorksheetRepository_EntryUpsertAndCascade(t *testing.T) {
	requirePostgres(t)
	env := itf.NewTestContext().Build(t)

	stations := itf.GetService[services.StationService](env)
	worksheets := itf.GetService[services.WorksheetService](env)

	_, err := stations.Create(env.Ctx, services.CreateStationInput{Name: "Kitchen", ShortCode: "KT"})
	require.NoError(t, err)

	ws, err := worksheets.Create(env.Ctx, services.CreateWorksheetInput{Month: 3, Year: 2025, Name: "March"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen"}, ws.Stations)

	first, err := worksheets.UpsertEntry(env.Ctx, ws.ID, 5, "Kitchen", []string{"Alice", "Bob"})
	require.NoError(t, err)

	// Same cell updates in place via the unique (worksheet, day, station) key.
	second, err := worksheets.UpsertEntry(env.Ctx, ws.ID, 5, "Kitchen", []string{"Carol"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"Carol"}, second.Employees)

	require.NoError(t, worksheets.Delete(env.Ctx, ws.ID))

	_, err = worksheets.Entries(env.Ctx, ws.ID)
	var svcErr *services.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "NOT_FOUND", svcErr.Code)
}
