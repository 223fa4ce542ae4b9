package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kmartell/ddltools/internal/models"
)

func sampleEntries(ts time.Time) []models.SummaryEntry {
	return []models.SummaryEntry{
		{Timestamp: ts, Server: "srv1", Database: "SalesDB", Status: models.StatusSuccess, FilePath: "/out/srv1_SalesDB_DDL.sql", Message: "schema exported"},
		{Timestamp: ts, Server: "srv2", Status: models.StatusFailure, Message: "connection failed: login error"},
		{Timestamp: ts, Server: "srv3", Database: "Staging", Status: models.StatusSkip, Message: "database state is RESTORING, skipping"},
		{Timestamp: ts, Server: "srv1", Status: models.StatusInfo, Message: "disconnected"},
		{Timestamp: ts, Server: "srv4", Status: models.StatusFailure, Message: "connection failed: timeout"},
	}
}

func TestWriteLog_LineFormat(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	r := NewRunReport("ddl-export", ts)
	r.Entries = sampleEntries(ts)[:1]

	var buf bytes.Buffer
	if err := r.WriteLog(&buf); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}

	want := "[2024-03-01 10:30:00] [SUCCESS] Server: srv1 | Database: SalesDB | FilePath: /out/srv1_SalesDB_DDL.sql | Message: schema exported\n"
	if buf.String() != want {
		t.Fatalf("log line mismatch:\ngot  %q\nwant %q", buf.String(), want)
	}
}

func TestWriteHTML_RowCountsMatchLog(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	r := NewRunReport("ddl-export", ts)
	r.Entries = sampleEntries(ts)

	var logBuf, htmlBuf bytes.Buffer
	if err := r.WriteLog(&logBuf); err != nil {
		t.Fatal(err)
	}
	if err := r.WriteHTML(&htmlBuf, "/tmp/run.log"); err != nil {
		t.Fatal(err)
	}
	html := htmlBuf.String()

	for status, class := range map[models.Status]string{
		models.StatusSuccess: "success",
		models.StatusFailure: "failure",
		models.StatusSkip:    "skip",
		models.StatusInfo:    "info",
	} {
		inLog := strings.Count(logBuf.String(), fmt.Sprintf("[%s]", status))
		inHTML := strings.Count(html, fmt.Sprintf(`<tr class="%s">`, class))
		if inLog != inHTML {
			t.Errorf("%s: %d log lines but %d HTML rows", status, inLog, inHTML)
		}
	}

	if !strings.Contains(html, "/tmp/run.log") {
		t.Error("HTML report must reference the log file path")
	}
}

func TestWriteHTML_EscapesContent(t *testing.T) {
	ts := time.Now()
	r := NewRunReport("ddl-export", ts)
	r.Entries = []models.SummaryEntry{
		{Timestamp: ts, Server: "srv<1>", Status: models.StatusFailure, Message: "a & b"},
	}

	var buf bytes.Buffer
	if err := r.WriteHTML(&buf, "run.log"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "srv<1>") {
		t.Fatal("server name must be HTML-escaped")
	}
}

func TestFlush_ArtifactsShareTimestamp(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	r := NewRunReport("ddl-export", ts)
	r.Entries = sampleEntries(ts)

	logPath, htmlPath, err := r.Flush(dir)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}

	wantLog := filepath.Join(dir, "ddl-export-log-20240301103000.log")
	wantHTML := filepath.Join(dir, "ddl-export-report-20240301103000.html")
	if logPath != wantLog {
		t.Fatalf("log path %q, want %q", logPath, wantLog)
	}
	if htmlPath != wantHTML {
		t.Fatalf("html path %q, want %q", htmlPath, wantHTML)
	}

	for _, path := range []string{logPath, htmlPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing artifact %s: %v", path, err)
		}
	}
}

func TestCounts(t *testing.T) {
	ts := time.Now()
	r := NewRunReport("ddl-export", ts)
	r.Entries = sampleEntries(ts)

	counts := r.Counts()
	if counts[models.StatusFailure] != 2 || counts[models.StatusSuccess] != 1 ||
		counts[models.StatusSkip] != 1 || counts[models.StatusInfo] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
