package ingest

import (
	"github.com/Jegx07/namma-madurai-engine/internal/gazetteer"
	"github.com/Jegx07/namma-madurai-engine/internal/ingest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest.service",
	fx.Provide(gazetteer.NewResolver),
	fx.Provide(service.NewService),
)
