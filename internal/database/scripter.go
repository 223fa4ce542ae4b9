package database

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kmartell/ddltools/internal/models"
)

// scripter walks one database's catalog views and serializes the selected
// object kinds as executable batches. Output order follows models.AllKinds
// so principals and schemas land before the objects that depend on them.
type scripter struct {
	db       *sql.DB
	database string
}

// moduleTypes maps an object kind to the sys.objects type_desc values that
// carry their definition in sys.sql_modules.
var moduleTypes = map[string][]string{
	models.KindFunction:  {"SQL_SCALAR_FUNCTION", "SQL_INLINE_TABLE_VALUED_FUNCTION", "SQL_TABLE_VALUED_FUNCTION"},
	models.KindProcedure: {"SQL_STORED_PROCEDURE"},
	models.KindView:      {"VIEW"},
	models.KindTrigger:   {"SQL_TRIGGER"},
}

func (s *scripter) run(ctx context.Context, kinds []string, w io.Writer) error {
	selected := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		selected[k] = true
	}

	bw := bufio.NewWriter(w)
	if err := s.scriptDatabaseDefinition(ctx, bw); err != nil {
		return err
	}

	for _, kind := range models.AllKinds() {
		if !selected[kind] {
			continue
		}
		var err error
		switch kind {
		case models.KindSchema:
			err = s.scriptSchemas(ctx, bw)
		case models.KindRole:
			err = s.scriptRoles(ctx, bw)
		case models.KindUser:
			err = s.scriptUsers(ctx, bw)
		case models.KindTable:
			err = s.scriptTables(ctx, bw)
		case models.KindSynonym:
			err = s.scriptSynonyms(ctx, bw)
		default:
			err = s.scriptModules(ctx, kind, bw)
		}
		if err != nil {
			return err
		}
	}

	if err := s.scriptPermissions(ctx, bw); err != nil {
		return err
	}
	if err := s.scriptExtendedProperties(ctx, bw); err != nil {
		return err
	}
	return bw.Flush()
}

func quoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func quoteLiteral(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func writeHeader(w io.Writer, objType, schema, name string) {
	qualified := quoteName(name)
	if schema != "" {
		qualified = quoteName(schema) + "." + quoteName(name)
	}
	fmt.Fprintf(w, "/****** Object:  %s %s    Script Date: %s ******/\n",
		objType, qualified, time.Now().Format("2006-01-02 15:04:05"))
}

func writeBatch(w io.Writer, stmt string) {
	fmt.Fprintf(w, "%s\nGO\n\n", strings.TrimRight(stmt, "\n"))
}

// scriptDatabaseDefinition emits the database's own definition object and the
// per-database context statement everything below runs under. The creation
// and option statements reference server-local paths and settings, which is
// exactly what the cleaner comments out for a foreign target.
func (s *scripter) scriptDatabaseDefinition(ctx context.Context, w io.Writer) error {
	query := `
	SELECT ISNULL(collation_name, ''), recovery_model_desc, compatibility_level
	FROM sys.databases
	WHERE name = @name
	`

	var collation, recovery string
	var compat int
	err := s.db.QueryRowContext(ctx, query, sql.Named("name", s.database)).
		Scan(&collation, &recovery, &compat)
	if err != nil {
		return fmt.Errorf("reading database definition for %s: %w", s.database, err)
	}

	db := quoteName(s.database)
	writeHeader(w, "Database", "", s.database)
	writeBatch(w, fmt.Sprintf("CREATE DATABASE %s", db))
	if collation != "" {
		writeBatch(w, fmt.Sprintf("ALTER DATABASE %s COLLATE %s", db, collation))
	}
	writeBatch(w, fmt.Sprintf("ALTER DATABASE %s SET RECOVERY %s", db, strings.ReplaceAll(recovery, "_", " ")))
	writeBatch(w, fmt.Sprintf("ALTER DATABASE %s SET COMPATIBILITY_LEVEL = %d", db, compat))
	writeBatch(w, fmt.Sprintf("USE %s", db))
	return nil
}

func (s *scripter) scriptSchemas(ctx context.Context, w io.Writer) error {
	query := `
	SELECT s.name, dp.name
	FROM sys.schemas s
	JOIN sys.database_principals dp ON s.principal_id = dp.principal_id
	WHERE s.schema_id BETWEEN 5 AND 16383
	ORDER BY s.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("listing schemas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, owner string
		if err := rows.Scan(&name, &owner); err != nil {
			return err
		}
		writeHeader(w, "Schema", "", name)
		writeBatch(w, fmt.Sprintf("CREATE SCHEMA %s AUTHORIZATION %s", quoteName(name), quoteName(owner)))
	}
	return rows.Err()
}

func (s *scripter) scriptRoles(ctx context.Context, w io.Writer) error {
	query := `
	SELECT dp.name, ISNULL(op.name, 'dbo')
	FROM sys.database_principals dp
	LEFT JOIN sys.database_principals op ON dp.owning_principal_id = op.principal_id
	WHERE dp.type = 'R' AND dp.is_fixed_role = 0 AND dp.name <> 'public'
	ORDER BY dp.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, owner string
		if err := rows.Scan(&name, &owner); err != nil {
			return err
		}
		writeHeader(w, "DatabaseRole", "", name)
		writeBatch(w, fmt.Sprintf("CREATE ROLE %s AUTHORIZATION %s", quoteName(name), quoteName(owner)))
	}
	return rows.Err()
}

func (s *scripter) scriptUsers(ctx context.Context, w io.Writer) error {
	query := `
	SELECT name, ISNULL(default_schema_name, 'dbo')
	FROM sys.database_principals
	WHERE type IN ('S', 'U', 'G') AND principal_id > 4 AND sid IS NOT NULL
	ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, schema string
		if err := rows.Scan(&name, &schema); err != nil {
			return err
		}
		writeHeader(w, "User", "", name)
		writeBatch(w, fmt.Sprintf("CREATE USER %s FOR LOGIN %s WITH DEFAULT_SCHEMA=%s",
			quoteName(name), quoteName(name), quoteName(schema)))
	}
	return rows.Err()
}

// listObjects enumerates non-system objects of the given catalog types.
func (s *scripter) listObjects(ctx context.Context, typeDescs []string) ([]models.SchemaObject, error) {
	quoted := make([]string, len(typeDescs))
	for i, t := range typeDescs {
		quoted[i] = "'" + t + "'"
	}

	query := fmt.Sprintf(`
	SELECT SCHEMA_NAME(o.schema_id), o.name, o.type_desc
	FROM sys.objects o
	WHERE o.type_desc IN (%s) AND o.is_ms_shipped = 0
	ORDER BY o.type_desc, o.name
	`, strings.Join(quoted, ", "))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	var objects []models.SchemaObject
	for rows.Next() {
		var obj models.SchemaObject
		if err := rows.Scan(&obj.Schema, &obj.Name, &obj.Type); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

// scriptModules handles every kind whose definition lives in sys.sql_modules:
// views, stored procedures, functions and triggers.
func (s *scripter) scriptModules(ctx context.Context, kind string, w io.Writer) error {
	objects, err := s.listObjects(ctx, moduleTypes[kind])
	if err != nil {
		return err
	}

	query := `
	SELECT m.definition
	FROM sys.sql_modules m
	JOIN sys.objects o ON m.object_id = o.object_id
	WHERE o.name = @name AND SCHEMA_NAME(o.schema_id) = @schema
	`

	for _, obj := range objects {
		var definition string
		err := s.db.QueryRowContext(ctx, query,
			sql.Named("name", obj.Name), sql.Named("schema", obj.Schema)).Scan(&definition)
		if err != nil {
			return fmt.Errorf("scripting %s %s.%s: %w", strings.ToLower(kind), obj.Schema, obj.Name, err)
		}
		writeHeader(w, headerType(kind), obj.Schema, obj.Name)
		writeBatch(w, definition)
	}
	return nil
}

func headerType(kind string) string {
	switch kind {
	case models.KindProcedure:
		return "StoredProcedure"
	case models.KindFunction:
		return "UserDefinedFunction"
	case models.KindTrigger:
		return "Trigger"
	default:
		return "View"
	}
}

func (s *scripter) scriptSynonyms(ctx context.Context, w io.Writer) error {
	query := `
	SELECT SCHEMA_NAME(schema_id), name, base_object_name
	FROM sys.synonyms
	ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("listing synonyms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, name, base string
		if err := rows.Scan(&schema, &name, &base); err != nil {
			return err
		}
		writeHeader(w, "Synonym", schema, name)
		writeBatch(w, fmt.Sprintf("CREATE SYNONYM %s.%s FOR %s", quoteName(schema), quoteName(name), base))
	}
	return rows.Err()
}
