package cleaner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommentStatements_CreateRole(t *testing.T) {
	out, modified := CommentStatements("CREATE ROLE foo AUTHORIZATION dbo;")
	if !modified {
		t.Fatal("expected line to be modified")
	}
	if out != "-- CREATE ROLE foo AUTHORIZATION dbo;" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCommentStatements_LowercaseAndIndented(t *testing.T) {
	out, modified := CommentStatements("  create role bar;")
	if !modified {
		t.Fatal("expected line to be modified")
	}
	if out != "--   create role bar;" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCommentStatements_AlterDatabase(t *testing.T) {
	out, modified := CommentStatements("ALTER DATABASE [x] SET RECOVERY FULL")
	if !modified {
		t.Fatal("expected line to be modified")
	}
	if !strings.HasPrefix(out, "-- ALTER DATABASE") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCommentStatements_SubstringDoesNotMatch(t *testing.T) {
	in := "CREATE TABLE CREATE ROLE"
	out, modified := CommentStatements(in)
	if modified || out != in {
		t.Fatalf("substring match must not trigger; got %q (modified=%v)", out, modified)
	}
}

func TestCommentStatements_OtherLinesPassThrough(t *testing.T) {
	in := "CREATE TABLE [dbo].[t] (\n    [id] [int] NOT NULL\n)\nGO\n"
	out, modified := CommentStatements(in)
	if modified || out != in {
		t.Fatalf("unrelated lines must pass through unchanged; got %q", out)
	}
}

func TestCommentStatements_Idempotent(t *testing.T) {
	once, modified := CommentStatements("CREATE ROLE foo;\nALTER DATABASE [x] SET ONLINE\nSELECT 1\n")
	if !modified {
		t.Fatal("first pass should modify")
	}
	twice, modified := CommentStatements(once)
	if modified {
		t.Fatal("second pass must be a no-op")
	}
	if twice != once {
		t.Fatalf("second pass changed content:\n%q\nvs\n%q", twice, once)
	}
}

func TestClean_RewritesFilesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a_DDL.sql")
	content := "USE [a]\nGO\nCREATE ROLE app_reader\nGO\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	changed, err := Clean(dir)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 changed file, got %d", changed)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "-- CREATE ROLE app_reader") {
		t.Fatalf("file not cleaned: %q", string(data))
	}
}

func TestClean_IgnoresSubdirectoriesAndOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "nested", "b.sql")
	if err := os.WriteFile(nested, []byte("CREATE ROLE x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("CREATE ROLE x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed, err := Clean(dir)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if changed != 0 {
		t.Fatalf("expected no changes, got %d", changed)
	}

	data, _ := os.ReadFile(nested)
	if strings.Contains(string(data), "--") {
		t.Fatal("nested file must not be touched")
	}
}

func TestClean_MissingDirFails(t *testing.T) {
	if _, err := Clean(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
