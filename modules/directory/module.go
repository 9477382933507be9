package directory

import (
	"embed"
	"io/fs"

	"github.com/shiftopia/shiftopia/modules/directory/infrastructure/persistence"
	"github.com/shiftopia/shiftopia/modules/directory/presentation/controllers"
	"github.com/shiftopia/shiftopia/modules/directory/services"
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

	employeeRepo := persistence.NewEmployeeRepository()
	timeoffRepo := persistence.NewTimeoffRepository()

	app.RegisterServices(
		services.NewEmployeeService(employeeRepo, app.EventPublisher()),
		services.NewAuthService(employeeRepo, configuration.Use()),
		services.NewTimeoffService(timeoffRepo, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewDirectoryAPIController(app),
	)

	registerAuditHandlers(app)

	return nil
}

func (m *Module) Name() string {
	return "directory"
}

// registerAuditHandlers writes an audit line for every directory mutation.
func registerAuditHandlers(app application.Application) {
	bus := app.EventPublisher()

	bus.Subscribe(func(e *services.EmployeeCreatedEvent) {
		logEvent("employee created", "employee_id", e.Employee.ID)
	})
	bus.Subscribe(func(e *services.EmployeeUpdatedEvent) {
		logEvent("employee updated", "employee_id", e.Employee.ID)
	})
	bus.Subscribe(func(e *services.EmployeeDeletedEvent) {
		logEvent("employee deleted", "employee_id", e.ID)
	})
	bus.Subscribe(func(e *services.TimeoffRequestedEvent) {
		logEvent("time-off requested", "request_id", e.Request.ID)
	})
	bus.Subscribe(func(e *services.TimeoffResolvedEvent) {
		logEvent("time-off resolved", "status", e.Request.Status)
	})
}

func logEvent(message, key string, value any) {
	configuration.Use().Logger().WithField(key, value).Info(message)
}
