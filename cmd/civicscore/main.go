package main

import (
	"github.com/Jegx07/namma-madurai-engine/internal/binalert"
	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	"github.com/Jegx07/namma-madurai-engine/internal/events"
	"github.com/Jegx07/namma-madurai-engine/internal/ingest"
	"github.com/Jegx07/namma-madurai-engine/internal/insight"
	"github.com/Jegx07/namma-madurai-engine/internal/leaderboard"
	"github.com/Jegx07/namma-madurai-engine/internal/migration"
	"github.com/Jegx07/namma-madurai-engine/internal/observability"
	"github.com/Jegx07/namma-madurai-engine/internal/report"
	"github.com/Jegx07/namma-madurai-engine/internal/scheduler"
	"github.com/Jegx07/namma-madurai-engine/internal/score"
	"github.com/Jegx07/namma-madurai-engine/internal/seed"
	"github.com/Jegx07/namma-madurai-engine/internal/server"
	"github.com/Jegx07/namma-madurai-engine/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		fx.Invoke(func(log *zap.Logger) {
			log.Info("starting civicscore", zap.String("version", version))
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			return seed.EnsureWards(conn)
		}),
		events.Module,
		ingest.Module,
		report.Module,
		binalert.Module,
		leaderboard.Module,
		score.Module,
		insight.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
