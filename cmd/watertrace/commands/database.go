package commands

import (
	"database/sql"

	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/db"
	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/logger"
	"github.com/hydroline/watertrace/store"
)

// openStore opens and migrates the configured database. An explicit path
// overrides configuration.
func openStore(dbPath string) (*store.SQLStore, *sql.DB, error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, errors.Wrap(err, "load configuration")
		}
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open database at %s", dbPath)
	}
	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, nil, errors.Wrapf(err, "migrate database at %s", dbPath)
	}

	return store.NewSQLStore(database, logger.Logger), database, nil
}
