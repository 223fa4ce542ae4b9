package replayer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kmartell/ddltools/internal/config"
	"github.com/kmartell/ddltools/internal/logging"
	"github.com/kmartell/ddltools/internal/models"
	"github.com/kmartell/ddltools/internal/report"
)

// clientName is the external SQL command-line client. Its exit code is the
// sole success signal; its own console diagnostics are streamed through.
const clientName = "sqlcmd"

// Result is the outcome of one client invocation. Only ExitCode drives the
// replay loop; the captured output aids later diagnostics.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner runs the external client. Tests swap in a scripted fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (Result, error)
}

// ExecRunner runs the real process, streaming its output to the console
// while capturing it for the result.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.MultiWriter(os.Stdout, &stdout)
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// ClientAvailable verifies the external client is reachable on the
// execution path before any per-file work begins.
func ClientAvailable() error {
	if _, err := exec.LookPath(clientName); err != nil {
		return fmt.Errorf("%s is not available on PATH: %w", clientName, err)
	}
	return nil
}

// Replayer executes every schema file in a folder against one target
// server/database, in name order, continuing past individual failures.
type Replayer struct {
	Runner   CommandRunner
	Server   string
	Database string
	Conn     config.Connection
	Now      func() time.Time
}

func New(server, database string, conn config.Connection) *Replayer {
	return &Replayer{
		Runner:   ExecRunner{},
		Server:   server,
		Database: database,
		Conn:     conn,
		Now:      time.Now,
	}
}

// Run replays dir's .sql files. The returned error covers setup problems
// only; per-file failures land in the report and never stop the loop.
func (r *Replayer) Run(ctx context.Context, dir string, rep *report.RunReport) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading source directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	if len(files) == 0 {
		logging.Warnf("no .sql files found in %s", dir)
		rep.Add(r.entry(models.StatusSkip, "", "no .sql files found"))
		return nil
	}

	for _, name := range files {
		path := filepath.Join(dir, name)
		logging.Infof("executing %s against %s/%s", name, r.Server, r.Database)

		res, err := r.Runner.Run(ctx, clientName, r.clientArgs(path))
		switch {
		case err != nil:
			rep.Add(r.entry(models.StatusFailure, path,
				fmt.Sprintf("could not run %s: %v", clientName, err)))
		case res.ExitCode != 0:
			rep.Add(r.entry(models.StatusFailure, path,
				fmt.Sprintf("%s exited with code %d", clientName, res.ExitCode)))
		default:
			rep.Add(r.entry(models.StatusSuccess, path, "executed"))
		}
	}
	return nil
}

// clientArgs builds the invocation for one file. -b makes the client report
// SQL errors through its exit code; the same authentication mode applies to
// every file in the run.
func (r *Replayer) clientArgs(path string) []string {
	args := []string{"-S", r.Server, "-d", r.Database, "-i", path, "-b"}
	if r.Conn.SQLAuth() {
		return append(args, "-U", r.Conn.User, "-P", r.Conn.Password)
	}
	return append(args, "-E")
}

func (r *Replayer) entry(status models.Status, path, msg string) models.SummaryEntry {
	return models.SummaryEntry{
		Timestamp: r.Now(),
		Server:    r.Server,
		Database:  r.Database,
		Status:    status,
		FilePath:  path,
		Message:   msg,
	}
}
