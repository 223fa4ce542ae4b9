package database

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// scriptPermissions emits GRANT/DENY statements for database-level and
// object-level permissions held by non-system principals.
func (s *scripter) scriptPermissions(ctx context.Context, w io.Writer) error {
	query := `
	SELECT p.state_desc, p.permission_name, USER_NAME(p.grantee_principal_id),
		p.class,
		ISNULL(OBJECT_SCHEMA_NAME(p.major_id), ''), ISNULL(OBJECT_NAME(p.major_id), '')
	FROM sys.database_permissions p
	WHERE p.grantee_principal_id > 4 AND p.class IN (0, 1)
	ORDER BY USER_NAME(p.grantee_principal_id), p.permission_name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state, permission, grantee, schema, object string
		var class int
		if err := rows.Scan(&state, &permission, &grantee, &class, &schema, &object); err != nil {
			return err
		}

		verb := state
		suffix := ""
		if state == "GRANT_WITH_GRANT_OPTION" {
			verb = "GRANT"
			suffix = " WITH GRANT OPTION"
		}

		var stmt string
		if class == 1 && object != "" {
			stmt = fmt.Sprintf("%s %s ON %s.%s TO %s%s",
				verb, permission, quoteName(schema), quoteName(object), quoteName(grantee), suffix)
		} else {
			stmt = fmt.Sprintf("%s %s TO %s%s", verb, permission, quoteName(grantee), suffix)
		}
		writeBatch(w, stmt)
	}
	return rows.Err()
}

// scriptExtendedProperties replays sp_addextendedproperty calls for the
// database itself and for top-level objects.
func (s *scripter) scriptExtendedProperties(ctx context.Context, w io.Writer) error {
	query := `
	SELECT ep.name, CAST(ep.value AS nvarchar(max)), ep.class,
		ISNULL(OBJECT_SCHEMA_NAME(ep.major_id), ''), ISNULL(OBJECT_NAME(ep.major_id), ''),
		ISNULL(o.type_desc, '')
	FROM sys.extended_properties ep
	LEFT JOIN sys.objects o ON ep.class = 1 AND ep.major_id = o.object_id
	WHERE ep.class IN (0, 1) AND ep.minor_id = 0
	ORDER BY ep.class, ep.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("listing extended properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value, schema, object, typeDesc string
		var class int
		if err := rows.Scan(&name, &value, &class, &schema, &object, &typeDesc); err != nil {
			return err
		}

		if class == 0 {
			writeBatch(w, fmt.Sprintf("EXEC sys.sp_addextendedproperty @name=%s, @value=%s",
				quoteLiteral(name), quoteLiteral(value)))
			continue
		}

		writeBatch(w, fmt.Sprintf(
			"EXEC sys.sp_addextendedproperty @name=%s, @value=%s, @level0type=N'SCHEMA', @level0name=%s, @level1type=%s, @level1name=%s",
			quoteLiteral(name), quoteLiteral(value), quoteLiteral(schema),
			quoteLiteral(levelType(typeDesc)), quoteLiteral(object)))
	}
	return rows.Err()
}

func levelType(typeDesc string) string {
	switch {
	case typeDesc == "USER_TABLE":
		return "TABLE"
	case typeDesc == "VIEW":
		return "VIEW"
	case typeDesc == "SQL_STORED_PROCEDURE":
		return "PROCEDURE"
	case strings.Contains(typeDesc, "FUNCTION"):
		return "FUNCTION"
	default:
		return "TABLE"
	}
}
