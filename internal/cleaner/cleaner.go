package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kmartell/ddltools/internal/logging"
)

// Statements that reference machine-specific settings on the source server
// and must not replay against a foreign target. Matching is against the
// start of a line, ignoring leading whitespace and case.
var commentPrefixes = []string{"CREATE ROLE", "ALTER DATABASE"}

// Clean post-processes every .sql file directly inside dir (non-recursive),
// commenting out offending lines in place. It returns the number of files
// that were modified. A missing directory is an error and touches nothing.
func Clean(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading target folder: %w", err)
	}

	changed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return changed, fmt.Errorf("reading %s: %w", path, err)
		}

		out, modified := CommentStatements(string(data))
		if !modified {
			logging.Debugf("%s unchanged", entry.Name())
			continue
		}

		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return changed, fmt.Errorf("writing %s: %w", path, err)
		}
		logging.Infof("cleaned %s", entry.Name())
		changed++
	}
	return changed, nil
}

// CommentStatements prefixes matching lines with a comment marker, keeping
// the original statement visible for manual inspection. All other lines pass
// through untouched. Already-commented lines never match again, so a second
// pass is a no-op.
func CommentStatements(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	modified := false
	for i, line := range lines {
		upper := strings.ToUpper(strings.TrimLeft(line, " \t"))
		for _, prefix := range commentPrefixes {
			if strings.HasPrefix(upper, prefix) {
				lines[i] = "-- " + line
				modified = true
				break
			}
		}
	}
	return strings.Join(lines, "\n"), modified
}
