package logging

import (
	"bytes"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

// TestHelpers_WriteToBuffer swaps the package-level logger for a
// buffer-backed one and checks every helper level lands in it.
func TestHelpers_WriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	L = clog.New(&buf)
	L.SetLevel(clog.DebugLevel)
	defer func() { L = prev }()

	Debugf("cleaned %s", "a.sql")
	Infof("connecting to %s", "srv1")
	Warnf("no files")
	Errorf("export failed: %v", "timeout")

	out := buf.String()
	for _, want := range []string{"cleaned a.sql", "connecting to srv1", "no files", "export failed: timeout"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output: %s", want, out)
		}
	}
}
