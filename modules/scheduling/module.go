package scheduling

import (
	"embed"
	"io/fs"

	"github.com/shiftopia/shiftopia/modules/scheduling/infrastructure/persistence"
	"github.com/shiftopia/shiftopia/modules/scheduling/presentation/controllers"
	"github.com/shiftopia/shiftopia/modules/scheduling/services"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	schema, err := fs.Sub(migrationFiles, "infrastructure/persistence/schema")
	if err != nil {
		return err
	}
	app.Migrations().RegisterSchema(m.Name(), schema)

	stationRepo := persistence.NewStationRepository()
	worksheetRepo := persistence.NewWorksheetRepository()

	app.RegisterServices(
		services.NewStationService(stationRepo, app.EventPublisher()),
		services.NewWorksheetService(worksheetRepo, stationRepo, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewSchedulingAPIController(app),
	)

	registerAuditHandlers(app)

	return nil
}

func (m *Module) Name() string {
	return "scheduling"
}

// registerAuditHandlers writes an audit line for every scheduling mutation.
func registerAuditHandlers(app application.Application) {
	bus := app.EventPublisher()

	bus.Subscribe(func(e *services.StationCreatedEvent) {
		logEvent("station created", "station_id", e.Station.ID)
	})
	bus.Subscribe(func(e *services.StationUpdatedEvent) {
		logEvent("station updated", "station_id", e.Station.ID)
	})
	bus.Subscribe(func(e *services.StationDeletedEvent) {
		logEvent("station deleted", "station_id", e.ID)
	})
	bus.Subscribe(func(e *services.StationsReorderedEvent) {
		logEvent("stations reordered", "count", len(e.Stations))
	})
	bus.Subscribe(func(e *services.WorksheetCreatedEvent) {
		logEvent("worksheet created", "worksheet_id", e.Worksheet.ID)
	})
	bus.Subscribe(func(e *services.WorksheetStatusChangedEvent) {
		logEvent("worksheet status changed", "status", e.Worksheet.Status)
	})
	bus.Subscribe(func(e *services.WorksheetDeletedEvent) {
		logEvent("worksheet deleted", "worksheet_id", e.ID)
	})
	bus.Subscribe(func(e *services.EntryUpsertedEvent) {
		logEvent("entry upserted", "worksheet_id", e.Entry.WorksheetID)
	})
}

func logEvent(message, key string, value any) {
	configuration.Use().Logger().WithField(key, value).Info(message)
}
