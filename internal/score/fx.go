package score

import (
	"github.com/Jegx07/namma-madurai-engine/internal/score/service"
	"go.uber.org/fx"
)

var Module = fx.Module("score.service",
	fx.Provide(service.NewService),
)
