package db

import (
	"strings"

	"cadview/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Instance *gorm.DB

func Init() {
	var (
		db  *gorm.DB
		err error
	)
	options := &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if config.MYSQL_DSN != "" {
		db, err = gorm.Open(mysql.Open(config.MYSQL_DSN), options)
	} else if config.SQLITE_FILE != "" {
		db, err = gorm.Open(sqlite.Open(SQLiteDSN(config.SQLITE_FILE)), options)
	} else {
		panic("either MYSQL_DSN or SQLITE_FILE must be configured")
	}
	if err != nil || db == nil {
		panic(err)
	}
	Instance = db
}

// SQLiteDSN turns foreign key enforcement on. SQLite ignores the schema's
// ON DELETE clauses otherwise, which would orphan dependent rows.
func SQLiteDSN(file string) string {
	if strings.Contains(file, "?") {
		return file + "&_foreign_keys=on"
	}
	return file + "?_foreign_keys=on"
}
