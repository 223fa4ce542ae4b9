package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveServers_CSVTrimsAndFiltersBlanks(t *testing.T) {
	path := writeCSV(t, "ServerName,Env\nsrv1,prod\n,dev\n  srv2  ,qa\n")

	servers, err := ResolveServers(nil, path)
	if err != nil {
		t.Fatalf("ResolveServers: %v", err)
	}
	want := []string{"srv1", "srv2"}
	if !reflect.DeepEqual(servers, want) {
		t.Fatalf("got %v, want %v", servers, want)
	}
}

func TestResolveServers_InstancesTrimmed(t *testing.T) {
	servers, err := ResolveServers([]string{" srv1 ", "", "srv2"}, "")
	if err != nil {
		t.Fatalf("ResolveServers: %v", err)
	}
	want := []string{"srv1", "srv2"}
	if !reflect.DeepEqual(servers, want) {
		t.Fatalf("got %v, want %v", servers, want)
	}
}

func TestResolveServers_ExactlyOneSource(t *testing.T) {
	if _, err := ResolveServers(nil, ""); !errors.Is(err, ErrNoInputSource) {
		t.Fatalf("expected ErrNoInputSource, got %v", err)
	}
	if _, err := ResolveServers([]string{"srv1"}, "some.csv"); !errors.Is(err, ErrBothInputs) {
		t.Fatalf("expected ErrBothInputs, got %v", err)
	}
}

func TestResolveServers_AllBlank(t *testing.T) {
	path := writeCSV(t, "ServerName\n\n  \n")
	if _, err := ResolveServers(nil, path); !errors.Is(err, ErrNoServers) {
		t.Fatalf("expected ErrNoServers, got %v", err)
	}
}

func TestServersFromCSV_MissingColumn(t *testing.T) {
	path := writeCSV(t, "Host\nsrv1\n")
	if _, err := ServersFromCSV(path); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestServersFromCSV_MissingFile(t *testing.T) {
	if _, err := ServersFromCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestServersFromCSV_ColumnPosition(t *testing.T) {
	path := writeCSV(t, "Env,ServerName\nprod,srv1\nqa,srv2\n")
	names, err := ServersFromCSV(path)
	if err != nil {
		t.Fatalf("ServersFromCSV: %v", err)
	}
	want := []string{"srv1", "srv2"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestConnectionSQLAuth(t *testing.T) {
	if (Connection{User: "sa"}).SQLAuth() {
		t.Fatal("user without password must not select SQL authentication")
	}
	if !(Connection{User: "sa", Password: "pw"}).SQLAuth() {
		t.Fatal("full pair must select SQL authentication")
	}
}
