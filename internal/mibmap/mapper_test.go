package mibmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/txfleet/txcore/internal/mibmap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestNew_MergesMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "1.3.6.1.4.1.31946.4.2.6.10.1: forward_power\n")
	writeFile(t, dir, "b.yml", "1.3.6.1.4.1.31946.4.2.6.10.2: reflected_power\n")

	m, err := mibmap.New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := m.Map("1.3.6.1.4.1.31946.4.2.6.10.1.0"); got != "forward_power" {
		t.Errorf("Map(.10.1.0) = %q, want forward_power", got)
	}
	if got := m.Map("1.3.6.1.4.1.31946.4.2.6.10.2.0"); got != "reflected_power" {
		t.Errorf("Map(.10.2.0) = %q, want reflected_power", got)
	}
}

func TestNew_MissingDirIsNotAnError(t *testing.T) {
	m, err := mibmap.New(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.Map("1.2.3"); got != "" {
		t.Errorf("Map on empty mapper = %q, want empty", got)
	}
}

func TestNew_SkipsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", ": not valid yaml :::\n")
	writeFile(t, dir, "good.yaml", "1.3.6.1.4.1.31946.4.2.6.10.14: frequency\n")

	m, err := mibmap.New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.Map("1.3.6.1.4.1.31946.4.2.6.10.14.0"); got != "frequency" {
		t.Errorf("Map(.10.14.0) = %q, want frequency", got)
	}
}

func TestStripInstance(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.3.6.1.4.1.31946.4.2.6.10.1.0", "1.3.6.1.4.1.31946.4.2.6.10.1"},
		{"1.3.6.1.4.1.31946.4.2.6.10.1.5", "1.3.6.1.4.1.31946.4.2.6.10.1"},
		{"1.3.6.1.4.1.31946.4.2.6.10.1", "1.3.6.1.4.1.31946.4.2.6.10"},
	}
	for _, tt := range tests {
		if got := mibmap.StripInstance(tt.in); got != tt.want {
			t.Errorf("StripInstance(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripInstance_Idempotent(t *testing.T) {
	// A single call never strips more than one component: the ".0" case
	// and a generic trailing index are mutually exclusive within one call.
	oid := "10.1.0"
	once := mibmap.StripInstance(oid)
	twice := mibmap.StripInstance(once)
	if once != twice {
		t.Errorf("StripInstance not idempotent: once=%q twice=%q", once, twice)
	}
}
