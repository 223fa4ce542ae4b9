package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Connection holds the authentication material shared by every server in a
// run. SQL Server authentication is used when both fields are set, otherwise
// the run falls back to integrated authentication.
type Connection struct {
	User     string
	Password string
}

// SQLAuth reports whether an explicit username/password pair was supplied.
func (c Connection) SQLAuth() bool {
	return c.User != "" && c.Password != ""
}

// serverNameColumn is the one required column of an input CSV; any other
// columns are ignored.
const serverNameColumn = "ServerName"

var (
	ErrNoInputSource  = errors.New("either a server list or an input file must be given")
	ErrBothInputs     = errors.New("a server list and an input file are mutually exclusive")
	ErrNoServers      = errors.New("resolved server list is empty")
	ErrMissingColumn  = fmt.Errorf("input file has no %q column", serverNameColumn)
	ErrEmptyInputFile = errors.New("input file has no header row")
)

// ResolveServers turns exactly one of the two input sources into the list of
// server names to process. Names are trimmed and blanks dropped here, before
// the per-server loop ever sees them.
func ResolveServers(instances []string, inputFile string) ([]string, error) {
	if len(instances) > 0 && inputFile != "" {
		return nil, ErrBothInputs
	}

	var names []string
	switch {
	case len(instances) > 0:
		names = instances
	case inputFile != "":
		var err error
		names, err = ServersFromCSV(inputFile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoInputSource
	}

	servers := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		servers = append(servers, name)
	}

	if len(servers) == 0 {
		return nil, ErrNoServers
	}
	return servers, nil
}

// ServersFromCSV reads every value of the ServerName column. Values are
// returned as-is; trimming and blank filtering happen in ResolveServers.
func ServersFromCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing input file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInputFile
	}

	col := -1
	for i, header := range records[0] {
		if strings.TrimSpace(header) == serverNameColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrMissingColumn
	}

	var names []string
	for _, record := range records[1:] {
		if col >= len(record) {
			continue
		}
		names = append(names, record[col])
	}
	return names, nil
}
