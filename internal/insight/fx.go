package insight

import (
	"github.com/Jegx07/namma-madurai-engine/internal/insight/service"
	"go.uber.org/fx"
)

var Module = fx.Module("insight.service",
	fx.Provide(service.NewService),
)
