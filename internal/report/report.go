package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/kmartell/ddltools/internal/models"
)

// timestampLayout is shared by entry lines and artifact file names so the
// text log and HTML report of one run always pair up.
const timestampLayout = "20060102150405"

const entryTimeLayout = "2006-01-02 15:04:05"

// RunReport is the append-only record of everything a run did. It is owned
// by the top-level command; components add entries through it and it is
// flushed exactly once at the end.
type RunReport struct {
	Tool      string
	StartedAt time.Time
	Entries   []models.SummaryEntry
}

func NewRunReport(tool string, startedAt time.Time) *RunReport {
	return &RunReport{Tool: tool, StartedAt: startedAt}
}

// Add appends an entry and echoes it to the console with status coloring.
func (r *RunReport) Add(e models.SummaryEntry) {
	r.Entries = append(r.Entries, e)
	Echo(e)
}

// Counts returns the number of entries per status.
func (r *RunReport) Counts() map[models.Status]int {
	counts := make(map[models.Status]int)
	for _, e := range r.Entries {
		counts[e.Status]++
	}
	return counts
}

// WriteLog writes the pipe-delimited text log, one line per entry.
func (r *RunReport) WriteLog(w io.Writer) error {
	for _, e := range r.Entries {
		_, err := fmt.Fprintf(w, "[%s] [%s] Server: %s | Database: %s | FilePath: %s | Message: %s\n",
			e.Timestamp.Format(entryTimeLayout), e.Status, e.Server, e.Database, e.FilePath, e.Message)
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the text log and the HTML report into dir. Both names carry
// the run's start timestamp, so repeated runs never collide.
func (r *RunReport) Flush(dir string) (logPath, htmlPath string, err error) {
	stamp := r.StartedAt.Format(timestampLayout)
	logPath = filepath.Join(dir, fmt.Sprintf("%s-log-%s.log", r.Tool, stamp))
	htmlPath = filepath.Join(dir, fmt.Sprintf("%s-report-%s.html", r.Tool, stamp))

	logFile, err := os.Create(logPath)
	if err != nil {
		return "", "", fmt.Errorf("creating run log: %w", err)
	}
	defer logFile.Close()
	if err := r.WriteLog(logFile); err != nil {
		return "", "", fmt.Errorf("writing run log: %w", err)
	}

	htmlFile, err := os.Create(htmlPath)
	if err != nil {
		return "", "", fmt.Errorf("creating HTML report: %w", err)
	}
	defer htmlFile.Close()
	if err := r.WriteHTML(htmlFile, logPath); err != nil {
		return "", "", fmt.Errorf("writing HTML report: %w", err)
	}

	return logPath, htmlPath, nil
}

// Echo prints one entry to the console, color-coded by status.
func Echo(e models.SummaryEntry) {
	line := fmt.Sprintf("[%s] %s", e.Status, e.Message)
	if e.Server != "" {
		line = fmt.Sprintf("[%s] %s: %s", e.Status, e.Server, e.Message)
	}
	switch e.Status {
	case models.StatusFailure:
		color.Red("%s", line)
	case models.StatusSuccess:
		color.Green("%s", line)
	case models.StatusSkip:
		color.Yellow("%s", line)
	default:
		color.Cyan("%s", line)
	}
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Segoe UI, Arial, sans-serif; margin: 24px; }
h1 { font-size: 1.4em; }
p.meta { color: #555; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; font-size: 0.9em; }
th { background-color: #eee; }
tr.failure { background-color: #fdd; }
tr.success { background-color: #dfd; }
tr.skip { background-color: #ffd; }
tr.info { background-color: #ddf; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Generated: {{.Generated}}</p>
<p class="meta">Log file: {{.LogPath}}</p>
<table>
<tr><th>Timestamp</th><th>Status</th><th>Server</th><th>Database</th><th>File</th><th>Message</th></tr>
{{range .Rows}}<tr class="{{.Class}}"><td>{{.Timestamp}}</td><td>{{.Status}}</td><td>{{.Server}}</td><td>{{.Database}}</td><td>{{.FilePath}}</td><td>{{.Message}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type htmlRow struct {
	Class     string
	Timestamp string
	Status    models.Status
	Server    string
	Database  string
	FilePath  string
	Message   string
}

type htmlData struct {
	Title     string
	Generated string
	LogPath   string
	Rows      []htmlRow
}

func statusClass(s models.Status) string {
	switch s {
	case models.StatusFailure:
		return "failure"
	case models.StatusSuccess:
		return "success"
	case models.StatusSkip:
		return "skip"
	default:
		return "info"
	}
}

// WriteHTML renders the self-contained HTML report, one table row per entry.
func (r *RunReport) WriteHTML(w io.Writer, logPath string) error {
	data := htmlData{
		Title:     fmt.Sprintf("%s run %s", r.Tool, r.StartedAt.Format(entryTimeLayout)),
		Generated: time.Now().Format(entryTimeLayout),
		LogPath:   logPath,
	}
	for _, e := range r.Entries {
		data.Rows = append(data.Rows, htmlRow{
			Class:     statusClass(e.Status),
			Timestamp: e.Timestamp.Format(entryTimeLayout),
			Status:    e.Status,
			Server:    e.Server,
			Database:  e.Database,
			FilePath:  e.FilePath,
			Message:   e.Message,
		})
	}
	return htmlTemplate.Execute(w, data)
}
