// Package database handles database connections for the presence change journal.
//
// It wraps GORM and opens either MySQL (gorm.io/driver/mysql) or SQLite
// (gorm.io/driver/sqlite) depending on Config.Driver. SQLite is mainly used for local
// runs and tests, typically with Name set to ":memory:".
//
// # Schema Checks
//
// TableColumns and MissingColumns inspect an existing table through the gorm migrator.
// The journal uses them to verify its table when auto migration is disabled.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Journal disabled", zap.Error(err))
//	}
package database
