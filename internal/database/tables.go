package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/kmartell/ddltools/internal/models"
)

// scriptTables writes a CREATE TABLE per user table followed by its default
// and check constraints, foreign keys and ordinary indexes. Constraints come
// after the table body so the output replays cleanly in file order.
func (s *scripter) scriptTables(ctx context.Context, w io.Writer) error {
	tables, err := s.listObjects(ctx, []string{"USER_TABLE"})
	if err != nil {
		return err
	}

	for _, t := range tables {
		writeHeader(w, "Table", t.Schema, t.Name)

		create, err := s.createTableStatement(ctx, t)
		if err != nil {
			return fmt.Errorf("scripting table %s.%s: %w", t.Schema, t.Name, err)
		}
		writeBatch(w, create)

		for _, step := range []func(context.Context, models.SchemaObject, io.Writer) error{
			s.scriptDefaultConstraints,
			s.scriptCheckConstraints,
			s.scriptForeignKeys,
			s.scriptIndexes,
		} {
			if err := step(ctx, t, w); err != nil {
				return fmt.Errorf("scripting table %s.%s: %w", t.Schema, t.Name, err)
			}
		}
	}
	return nil
}

type columnDef struct {
	name      string
	typeName  string
	maxLength int
	precision int
	scale     int
	nullable  bool
	isIdent   bool
	seed      int64
	increment int64
	computed  string
}

func (s *scripter) createTableStatement(ctx context.Context, t models.SchemaObject) (string, error) {
	query := `
	SELECT c.name, tp.name, c.max_length, c.precision, c.scale, c.is_nullable,
		c.is_identity,
		CAST(ISNULL(ic.seed_value, 1) AS bigint), CAST(ISNULL(ic.increment_value, 1) AS bigint),
		ISNULL(cc.definition, '')
	FROM sys.columns c
	LEFT JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	LEFT JOIN sys.identity_columns ic ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	LEFT JOIN sys.computed_columns cc ON c.object_id = cc.object_id AND c.column_id = cc.column_id
	WHERE c.object_id = OBJECT_ID(@qualified)
	ORDER BY c.column_id
	`

	rows, err := s.db.QueryContext(ctx, query, sql.Named("qualified", qualifiedName(t)))
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var c columnDef
		if err := rows.Scan(&c.name, &c.typeName, &c.maxLength, &c.precision, &c.scale,
			&c.nullable, &c.isIdent, &c.seed, &c.increment, &c.computed); err != nil {
			return "", err
		}
		lines = append(lines, "    "+columnLine(c))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	keys, err := s.keyConstraintLines(ctx, t)
	if err != nil {
		return "", err
	}
	lines = append(lines, keys...)

	return fmt.Sprintf("CREATE TABLE %s.%s (\n%s\n)",
		quoteName(t.Schema), quoteName(t.Name), strings.Join(lines, ",\n")), nil
}

func columnLine(c columnDef) string {
	if c.computed != "" {
		return fmt.Sprintf("%s AS %s", quoteName(c.name), c.computed)
	}

	line := quoteName(c.name) + " " + formatDataType(c.typeName, c.maxLength, c.precision, c.scale)
	if c.isIdent {
		line += fmt.Sprintf(" IDENTITY(%d,%d)", c.seed, c.increment)
	}
	if c.nullable {
		line += " NULL"
	} else {
		line += " NOT NULL"
	}
	return line
}

func formatDataType(typeName string, maxLength, precision, scale int) string {
	quoted := quoteName(typeName)
	switch typeName {
	case "varchar", "char", "varbinary", "binary":
		if maxLength == -1 {
			return quoted + "(MAX)"
		}
		return fmt.Sprintf("%s(%d)", quoted, maxLength)
	case "nvarchar", "nchar":
		if maxLength == -1 {
			return quoted + "(MAX)"
		}
		return fmt.Sprintf("%s(%d)", quoted, maxLength/2)
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d, %d)", quoted, precision, scale)
	case "datetime2", "datetimeoffset", "time":
		return fmt.Sprintf("%s(%d)", quoted, scale)
	default:
		return quoted
	}
}

// keyConstraintLines renders primary key and unique constraints as body
// lines of the CREATE TABLE. The column list is aggregated server-side with
// the usual FOR XML PATH trick.
func (s *scripter) keyConstraintLines(ctx context.Context, t models.SchemaObject) ([]string, error) {
	query := `
	SELECT i.name, i.type_desc, i.is_primary_key,
		STUFF((
			SELECT ',' + '[' + c.name + ']'
			FROM sys.index_columns ic
			JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
			WHERE ic.object_id = i.object_id AND ic.index_id = i.index_id
			ORDER BY ic.key_ordinal
			FOR XML PATH('')
		), 1, 1, '')
	FROM sys.indexes i
	WHERE i.object_id = OBJECT_ID(@qualified)
		AND (i.is_primary_key = 1 OR i.is_unique_constraint = 1)
	ORDER BY i.is_primary_key DESC, i.name
	`

	rows, err := s.db.QueryContext(ctx, query, sql.Named("qualified", qualifiedName(t)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var name, typeDesc, columns string
		var isPK bool
		if err := rows.Scan(&name, &typeDesc, &isPK, &columns); err != nil {
			return nil, err
		}

		kind := "UNIQUE"
		if isPK {
			kind = "PRIMARY KEY"
		}
		clustered := "NONCLUSTERED"
		if strings.Contains(typeDesc, "CLUSTERED") && !strings.Contains(typeDesc, "NONCLUSTERED") {
			clustered = "CLUSTERED"
		}
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s %s %s (%s)",
			quoteName(name), kind, clustered, columns))
	}
	return lines, rows.Err()
}

func (s *scripter) scriptDefaultConstraints(ctx context.Context, t models.SchemaObject, w io.Writer) error {
	query := `
	SELECT dc.name, dc.definition, c.name
	FROM sys.default_constraints dc
	JOIN sys.columns c ON dc.parent_object_id = c.object_id AND dc.parent_column_id = c.column_id
	WHERE dc.parent_object_id = OBJECT_ID(@qualified)
	ORDER BY dc.name
	`

	rows, err := s.db.QueryContext(ctx, query, sql.Named("qualified", qualifiedName(t)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, definition, column string
		if err := rows.Scan(&name, &definition, &column); err != nil {
			return err
		}
		writeBatch(w, fmt.Sprintf("ALTER TABLE %s.%s ADD CONSTRAINT %s DEFAULT %s FOR %s",
			quoteName(t.Schema), quoteName(t.Name), quoteName(name), definition, quoteName(column)))
	}
	return rows.Err()
}

func (s *scripter) scriptCheckConstraints(ctx context.Context, t models.SchemaObject, w io.Writer) error {
	query := `
	SELECT name, definition
	FROM sys.check_constraints
	WHERE parent_object_id = OBJECT_ID(@qualified)
	ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, sql.Named("qualified", qualifiedName(t)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, definition string
		if err := rows.Scan(&name, &definition); err != nil {
			return err
		}
		writeBatch(w, fmt.Sprintf("ALTER TABLE %s.%s WITH CHECK ADD CONSTRAINT %s CHECK %s",
			quoteName(t.Schema), quoteName(t.Name), quoteName(name), definition))
		writeBatch(w, fmt.Sprintf("ALTER TABLE %s.%s CHECK CONSTRAINT %s",
			quoteName(t.Schema), quoteName(t.Name), quoteName(name)))
	}
	return rows.Err()
}

func (s *scripter) scriptForeignKeys(ctx context.Context, t models.SchemaObject, w io.Writer) error {
	query := `
	SELECT fk.name,
		STUFF((
			SELECT ',' + '[' + COL_NAME(fkc.parent_object_id, fkc.parent_column_id) + ']'
			FROM sys.foreign_key_columns fkc
			WHERE fkc.constraint_object_id = fk.object_id
			ORDER BY fkc.constraint_column_id
			FOR XML PATH('')
		), 1, 1, ''),
		SCHEMA_NAME(rt.schema_id), rt.name,
		STUFF((
			SELECT ',' + '[' + COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) + ']'
			FROM sys.foreign_key_columns fkc
			WHERE fkc.constraint_object_id = fk.object_id
			ORDER BY fkc.constraint_column_id
			FOR XML PATH('')
		), 1, 1, '')
	FROM sys.foreign_keys fk
	JOIN sys.tables rt ON fk.referenced_object_id = rt.object_id
	WHERE fk.parent_object_id = OBJECT_ID(@qualified)
	ORDER BY fk.name
	`

	rows, err := s.db.QueryContext(ctx, query, sql.Named("qualified", qualifiedName(t)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, columns, refSchema, refTable, refColumns string
		if err := rows.Scan(&name, &columns, &refSchema, &refTable, &refColumns); err != nil {
			return err
		}
		writeBatch(w, fmt.Sprintf("ALTER TABLE %s.%s WITH CHECK ADD CONSTRAINT %s FOREIGN KEY (%s)\nREFERENCES %s.%s (%s)",
			quoteName(t.Schema), quoteName(t.Name), quoteName(name), columns,
			quoteName(refSchema), quoteName(refTable), refColumns))
		writeBatch(w, fmt.Sprintf("ALTER TABLE %s.%s CHECK CONSTRAINT %s",
			quoteName(t.Schema), quoteName(t.Name), quoteName(name)))
	}
	return rows.Err()
}

// scriptIndexes covers ordinary indexes; key constraints are part of the
// table body already.
func (s *scripter) scriptIndexes(ctx context.Context, t models.SchemaObject, w io.Writer) error {
	query := `
	SELECT i.name, i.type_desc, i.is_unique,
		STUFF((
			SELECT ',' + '[' + c.name + ']'
			FROM sys.index_columns ic
			JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
			WHERE ic.object_id = i.object_id AND ic.index_id = i.index_id AND ic.is_included_column = 0
			ORDER BY ic.key_ordinal
			FOR XML PATH('')
		), 1, 1, ''),
		ISNULL(STUFF((
			SELECT ',' + '[' + c.name + ']'
			FROM sys.index_columns ic
			JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
			WHERE ic.object_id = i.object_id AND ic.index_id = i.index_id AND ic.is_included_column = 1
			ORDER BY ic.index_column_id
			FOR XML PATH('')
		), 1, 1, ''), '')
	FROM sys.indexes i
	WHERE i.object_id = OBJECT_ID(@qualified)
		AND i.is_primary_key = 0 AND i.is_unique_constraint = 0
		AND i.type > 0 AND i.name IS NOT NULL
	ORDER BY i.name
	`

	rows, err := s.db.QueryContext(ctx, query, sql.Named("qualified", qualifiedName(t)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, typeDesc, columns, included string
		var isUnique bool
		if err := rows.Scan(&name, &typeDesc, &isUnique, &columns, &included); err != nil {
			return err
		}

		unique := ""
		if isUnique {
			unique = "UNIQUE "
		}
		stmt := fmt.Sprintf("CREATE %s%s INDEX %s ON %s.%s (%s)",
			unique, typeDesc, quoteName(name), quoteName(t.Schema), quoteName(t.Name), columns)
		if included != "" {
			stmt += fmt.Sprintf(" INCLUDE (%s)", included)
		}
		writeHeader(w, "Index", t.Schema, name)
		writeBatch(w, stmt)
	}
	return rows.Err()
}

func qualifiedName(t models.SchemaObject) string {
	return quoteName(t.Schema) + "." + quoteName(t.Name)
}
