package modules

import (
	"github.com/shiftopia/shiftopia/modules/directory"
	"github.com/shiftopia/shiftopia/modules/scheduling"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/configuration"
)

// BuiltInModules is the default module set loaded by the server and CLI.
// Directory comes first so employee records exist before scheduling
// references them by name.
var BuiltInModules = []application.Module{
	directory.NewModule(),
	scheduling.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	conf := configuration.Use()
	for _, module := range append(BuiltInModules, externalModules...) {
		if err := module.Register(app); err != nil {
			return err
		}
		conf.Logger().WithField("module", module.Name()).Debug("module loaded")
	}
	return nil
}
