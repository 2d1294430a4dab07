package migration

import (
	"github.com/pelshen/namedraw/internal/config"
	installdomain "github.com/pelshen/namedraw/internal/installation/domain"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL for postgres; AutoMigrate covers the dev
		// dialects.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&usagedomain.UsageRecord{},
			&installdomain.Installation{},
		)
	}),
)
