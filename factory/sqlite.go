package factory

import (
	"database/sql/driver"

	sqlite3 "github.com/mattn/go-sqlite3"
)

func init() {
	Register("sqlite3", func(dsn string) (Factory[driver.Conn], error) {
		// go-sqlite3 predates driver.Connector, so bind the DSN up front.
		return NewSQL(dsnConnector{dsn: dsn, driver: &sqlite3.SQLiteDriver{}}), nil
	})
}
