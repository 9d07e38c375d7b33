package factory

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

func init() {
	Register("postgres", func(dsn string) (Factory[driver.Conn], error) {
		connector, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, err
		}
		return NewSQL(connector), nil
	})
}
