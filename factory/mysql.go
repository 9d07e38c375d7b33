package factory

import (
	"database/sql/driver"

	"github.com/go-sql-driver/mysql"
)

func init() {
	Register("mysql", func(dsn string) (Factory[driver.Conn], error) {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, err
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return NewSQL(connector), nil
	})
}
