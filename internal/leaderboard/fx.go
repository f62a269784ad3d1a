package leaderboard

import (
	"github.com/Jegx07/namma-madurai-engine/internal/leaderboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("leaderboard.service",
	fx.Provide(service.NewService),
)
