package database

import (
	"strings"
	"testing"

	"github.com/kmartell/ddltools/internal/config"
)

func TestBuildConnString_SQLAuthentication(t *testing.T) {
	got := BuildConnString("srv1", "master", config.Connection{User: "sa", Password: "pw"})

	for _, part := range []string{"Server=srv1", "Database=master", "User Id=sa", "Password=pw"} {
		if !strings.Contains(got, part) {
			t.Errorf("connection string missing %q: %s", part, got)
		}
	}
	if strings.Contains(got, "Integrated Security") {
		t.Errorf("SQL authentication must not request integrated security: %s", got)
	}
}

func TestBuildConnString_IntegratedWhenPairIncomplete(t *testing.T) {
	for _, conn := range []config.Connection{{}, {User: "sa"}, {Password: "pw"}} {
		got := BuildConnString("srv1", "AppDB", conn)
		if !strings.Contains(got, "Integrated Security=SSPI") {
			t.Errorf("conn %+v: expected integrated security, got %s", conn, got)
		}
		if strings.Contains(got, "User Id=") {
			t.Errorf("conn %+v: partial credentials must not leak into the string: %s", conn, got)
		}
	}
}

func TestQuoteName(t *testing.T) {
	if got := quoteName("dbo"); got != "[dbo]" {
		t.Fatalf("quoteName = %q", got)
	}
	if got := quoteName("odd]name"); got != "[odd]]name]" {
		t.Fatalf("quoteName must escape closing brackets, got %q", got)
	}
}

func TestFormatDataType(t *testing.T) {
	cases := []struct {
		typeName  string
		maxLength int
		precision int
		scale     int
		want      string
	}{
		{"int", 4, 10, 0, "[int]"},
		{"varchar", 50, 0, 0, "[varchar](50)"},
		{"varchar", -1, 0, 0, "[varchar](MAX)"},
		{"nvarchar", 100, 0, 0, "[nvarchar](50)"},
		{"nvarchar", -1, 0, 0, "[nvarchar](MAX)"},
		{"decimal", 9, 18, 2, "[decimal](18, 2)"},
		{"datetime2", 8, 27, 7, "[datetime2](7)"},
	}
	for _, c := range cases {
		if got := formatDataType(c.typeName, c.maxLength, c.precision, c.scale); got != c.want {
			t.Errorf("formatDataType(%s) = %q, want %q", c.typeName, got, c.want)
		}
	}
}

func TestColumnLine(t *testing.T) {
	got := columnLine(columnDef{name: "id", typeName: "int", maxLength: 4, isIdent: true, seed: 1, increment: 1})
	if got != "[id] [int] IDENTITY(1,1) NOT NULL" {
		t.Fatalf("identity column line = %q", got)
	}

	got = columnLine(columnDef{name: "note", typeName: "nvarchar", maxLength: -1, nullable: true})
	if got != "[note] [nvarchar](MAX) NULL" {
		t.Fatalf("nullable column line = %q", got)
	}

	got = columnLine(columnDef{name: "total", computed: "([price]*[qty])"})
	if got != "[total] AS ([price]*[qty])" {
		t.Fatalf("computed column line = %q", got)
	}
}

func TestLevelType(t *testing.T) {
	cases := map[string]string{
		"USER_TABLE":                "TABLE",
		"VIEW":                      "VIEW",
		"SQL_STORED_PROCEDURE":      "PROCEDURE",
		"SQL_SCALAR_FUNCTION":       "FUNCTION",
		"SQL_TABLE_VALUED_FUNCTION": "FUNCTION",
	}
	for typeDesc, want := range cases {
		if got := levelType(typeDesc); got != want {
			t.Errorf("levelType(%s) = %q, want %q", typeDesc, got, want)
		}
	}
}
