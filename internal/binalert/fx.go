package binalert

import (
	"github.com/Jegx07/namma-madurai-engine/internal/binalert/service"
	"go.uber.org/fx"
)

var Module = fx.Module("binalert.monitor",
	fx.Provide(service.NewMonitor),
)
