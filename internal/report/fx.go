package report

import (
	"github.com/Jegx07/namma-madurai-engine/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(service.NewService),
)
