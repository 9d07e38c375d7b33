package factory

import (
	"context"
	"database/sql/driver"
)

// sqlFactory adapts a database/sql driver.Connector to the Factory contract.
// Connections are raw driver.Conn values, never wrapped in a *sql.DB, so the
// pool stays the sole owner of their lifecycle.
type sqlFactory struct {
	connector driver.Connector
}

// NewSQL wraps a driver.Connector in a Factory.
func NewSQL(c driver.Connector) Factory[driver.Conn] {
	return &sqlFactory{connector: c}
}

func (f *sqlFactory) Open(ctx context.Context) (driver.Conn, error) {
	return f.connector.Connect(ctx)
}

func (f *sqlFactory) Check(ctx context.Context, conn driver.Conn) bool {
	if p, ok := conn.(driver.Pinger); ok {
		return p.Ping(ctx) == nil
	}
	if v, ok := conn.(driver.Validator); ok {
		return v.IsValid()
	}
	// Drivers that expose neither capability are assumed healthy.
	return true
}

func (f *sqlFactory) Close(conn driver.Conn) error {
	return conn.Close()
}

// dsnConnector binds a DSN to a legacy driver.Driver that predates the
// Connector interface.
type dsnConnector struct {
	dsn    string
	driver driver.Driver
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c dsnConnector) Driver() driver.Driver {
	return c.driver
}
