package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kmartell/ddltools/internal/config"
	"github.com/kmartell/ddltools/internal/database"
	"github.com/kmartell/ddltools/internal/logging"
	"github.com/kmartell/ddltools/internal/models"
	"github.com/kmartell/ddltools/internal/report"
)

// Catalog is the capability the exporter needs from a connected server:
// enumerate databases and script one of them. The production implementation
// lives in internal/database; tests substitute fakes.
type Catalog interface {
	ListDatabases(ctx context.Context) ([]models.DatabaseHandle, error)
	ScriptDatabase(ctx context.Context, name string, kinds []string, w io.Writer) error
	Close() error
}

// Connector opens a Catalog for one server.
type Connector func(server string, conn config.Connection) (Catalog, error)

func defaultConnector(server string, conn config.Connection) (Catalog, error) {
	c, err := database.Connect(server, conn)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Exporter drives one export run: servers strictly in order, databases
// strictly in order, one schema file per database.
type Exporter struct {
	Connect   Connector
	Conn      config.Connection
	OutputDir string
	Kinds     []string
	Now       func() time.Time
}

func New(conn config.Connection, outputDir string, kinds []string) *Exporter {
	return &Exporter{
		Connect:   defaultConnector,
		Conn:      conn,
		OutputDir: outputDir,
		Kinds:     kinds,
		Now:       time.Now,
	}
}

// Run processes every server in the list. One server's failure never stops
// the run; every unit of work leaves at least one entry in the report.
func (e *Exporter) Run(ctx context.Context, servers []string, rep *report.RunReport) {
	for _, server := range servers {
		e.exportServer(ctx, server, rep)
	}
}

func (e *Exporter) exportServer(ctx context.Context, server string, rep *report.RunReport) {
	server = strings.TrimSpace(server)
	if server == "" {
		rep.Add(e.entry(models.StatusSkip, "", "", "", "empty server name, skipping"))
		return
	}

	logging.Infof("connecting to %s", server)
	cat, err := e.Connect(server, e.Conn)
	if err != nil {
		rep.Add(e.entry(models.StatusFailure, server, "", "",
			fmt.Sprintf("connection failed: %s", rootCause(err))))
		return
	}

	databases, err := cat.ListDatabases(ctx)
	if err != nil {
		rep.Add(e.entry(models.StatusFailure, server, "", "",
			fmt.Sprintf("enumerating databases failed: %s", rootCause(err))))
		cat.Close()
		return
	}

	var online []models.DatabaseHandle
	for _, db := range databases {
		if models.SystemDatabases[db.Name] {
			continue
		}
		if !db.Online() {
			rep.Add(e.entry(models.StatusSkip, server, db.Name, "",
				fmt.Sprintf("database state is %s, skipping", db.State)))
			continue
		}
		online = append(online, db)
	}

	if len(online) == 0 {
		rep.Add(e.entry(models.StatusSkip, server, "", "", "no user databases in a normal state"))
	}

	for _, db := range online {
		e.exportDatabase(ctx, cat, server, db.Name, rep)
	}

	cat.Close()
	rep.Add(e.entry(models.StatusInfo, server, "", "", "disconnected"))
}

func (e *Exporter) exportDatabase(ctx context.Context, cat Catalog, server, db string, rep *report.RunReport) {
	path := filepath.Join(e.OutputDir, FileName(server, db))

	f, err := os.Create(path)
	if err != nil {
		rep.Add(e.entry(models.StatusFailure, server, db, path,
			fmt.Sprintf("creating schema file failed: %s", rootCause(err))))
		return
	}

	err = cat.ScriptDatabase(ctx, db, e.Kinds, f)
	f.Close()
	if err != nil {
		rep.Add(e.entry(models.StatusFailure, server, db, path,
			fmt.Sprintf("schema export failed: %s", rootCause(err))))
		return
	}

	rep.Add(e.entry(models.StatusSuccess, server, db, path, "schema exported"))
}

func (e *Exporter) entry(status models.Status, server, db, path, msg string) models.SummaryEntry {
	return models.SummaryEntry{
		Timestamp: e.Now(),
		Server:    server,
		Database:  db,
		Status:    status,
		FilePath:  path,
		Message:   msg,
	}
}

// FileName builds the schema file name for one database. Path separators and
// instance colons in the server name would otherwise leak into the path.
func FileName(server, db string) string {
	return fmt.Sprintf("%s_%s_DDL.sql", sanitizeServerName(server), db)
}

func sanitizeServerName(server string) string {
	r := strings.NewReplacer("\\", "_", "/", "_", ":", "_")
	return r.Replace(server)
}

// rootCause walks the wrap chain to the deepest error, which for driver
// failures is the specific network or login diagnostic worth reporting.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
