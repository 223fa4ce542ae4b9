package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/kmartell/ddltools/internal/config"
	"github.com/kmartell/ddltools/internal/models"
)

// Catalog is a connection to one server's object catalog. The exporter only
// sees this through its interface, so the catalog queries stay swappable.
type Catalog struct {
	Server string
	conn   config.Connection
	db     *sql.DB
}

// BuildConnString assembles the driver connection string. The credential is
// built explicitly here: SQL Server authentication only when a full
// user/password pair exists, integrated authentication otherwise.
func BuildConnString(server, database string, conn config.Connection) string {
	if conn.SQLAuth() {
		return fmt.Sprintf("Server=%s;Database=%s;User Id=%s;Password=%s;TrustServerCertificate=true",
			server, database, conn.User, conn.Password)
	}
	return fmt.Sprintf("Server=%s;Database=%s;Integrated Security=SSPI;TrustServerCertificate=true",
		server, database)
}

// Connect opens a catalog connection against the server's master database
// and verifies it with a ping before handing it out.
func Connect(server string, conn config.Connection) (*Catalog, error) {
	db, err := sql.Open("sqlserver", BuildConnString(server, "master", conn))
	if err != nil {
		return nil, fmt.Errorf("opening connection to %s: %w", server, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", server, err)
	}

	return &Catalog{Server: server, conn: conn, db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// ListDatabases enumerates every non-system database with its state. Callers
// decide what to do with databases that are not ONLINE.
func (c *Catalog) ListDatabases(ctx context.Context) ([]models.DatabaseHandle, error) {
	query := `
	SELECT name, state_desc
	FROM sys.databases
	WHERE name NOT IN ('master', 'model', 'msdb', 'tempdb')
	ORDER BY name
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing databases on %s: %w", c.Server, err)
	}
	defer rows.Close()

	var databases []models.DatabaseHandle
	for rows.Next() {
		var d models.DatabaseHandle
		if err := rows.Scan(&d.Name, &d.State); err != nil {
			return nil, err
		}
		databases = append(databases, d)
	}
	return databases, rows.Err()
}

// ScriptDatabase writes the full DDL for one database to w. A dedicated
// connection scoped to the database is opened for the duration of the
// scripting pass and always closed before returning.
func (c *Catalog) ScriptDatabase(ctx context.Context, name string, kinds []string, w io.Writer) error {
	db, err := sql.Open("sqlserver", BuildConnString(c.Server, name, c.conn))
	if err != nil {
		return fmt.Errorf("opening connection to %s database %s: %w", c.Server, name, err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("connecting to %s database %s: %w", c.Server, name, err)
	}

	s := &scripter{db: db, database: name}
	return s.run(ctx, kinds, w)
}
