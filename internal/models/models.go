package models

import "time"

// Status classifies the outcome of one unit of work (a server connection,
// a database export, or a file replay).
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusSkip    Status = "SKIP"
	StatusInfo    Status = "INFO"
)

// SummaryEntry is one record in the run report. Entries are append-only and
// never mutated after creation.
type SummaryEntry struct {
	Timestamp time.Time
	Server    string
	Database  string
	Status    Status
	FilePath  string
	Message   string
}

// DatabaseHandle is a database as enumerated from a connected server.
type DatabaseHandle struct {
	Name  string
	State string
}

// Online reports whether the database is in the normal operating state,
// as opposed to restoring, offline, suspect and friends.
func (d DatabaseHandle) Online() bool {
	return d.State == "ONLINE"
}

// SchemaObject identifies one scriptable object inside a database.
type SchemaObject struct {
	Schema string
	Name   string
	Type   string
}

// Object kinds selectable for an export run.
const (
	KindSchema    = "SCHEMA"
	KindRole      = "ROLE"
	KindUser      = "USER"
	KindFunction  = "FUNCTION"
	KindProcedure = "PROCEDURE"
	KindTable     = "TABLE"
	KindView      = "VIEW"
	KindTrigger   = "TRIGGER"
	KindSynonym   = "SYNONYM"
)

// AllKinds returns every object kind in scripting order: principals and
// schemas first, then code and tables, then objects that reference them.
func AllKinds() []string {
	return []string{
		KindSchema, KindRole, KindUser,
		KindFunction, KindProcedure, KindTable, KindView, KindTrigger,
		KindSynonym,
	}
}

// SystemDatabases are never exported.
var SystemDatabases = map[string]bool{
	"master": true,
	"model":  true,
	"msdb":   true,
	"tempdb": true,
}
