// Package mibmap loads human-readable OID name mappings from YAML files and
// implements the two MIB mapper operations: strip_instance and map.
package mibmap

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapper is a read-only OID → name lookup built once at startup from one or
// more YAML mapping files. Safe for concurrent reads; there is no mutation
// after New returns.
type Mapper struct {
	names map[string]string
}

// New loads every *.yml/*.yaml file under dir (recursively) and merges their
// top-level oid: name entries into one Mapper. A missing directory yields an
// empty, valid Mapper rather than an error, matching the teacher's
// partial-deployment allowance for its own config directories.
func New(dir string, logger *slog.Logger) (*Mapper, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	names := make(map[string]string)

	files, err := yamlFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Mapper{names: names}, nil
		}
		return nil, fmt.Errorf("mibmap: list dir %q: %w", dir, err)
	}

	for _, path := range files {
		var raw map[string]string
		if err := decodeFile(path, &raw); err != nil {
			logger.Warn("mibmap: skip malformed mapping file", "file", path, "error", err.Error())
			continue
		}
		for oid, name := range raw {
			// Mapping keys are already base OIDs as written by the config
			// author — StripInstance belongs only on the runtime lookup
			// side (Map), not here; stripping a key would mangle bases
			// that themselves end in a table-style numeric component
			// (e.g. the Elenos family's "...10.1", "...10.2").
			names[normaliseOID(oid)] = name
		}
		logger.Debug("mibmap: loaded mapping file", "file", path, "count", len(raw))
	}

	return &Mapper{names: names}, nil
}

// Map returns the human-readable name registered for oid, or "" if none is
// known. The lookup runs on StripInstance(oid), so instance forms share one
// entry: "1.3.6.1.2.1.1.1.0" and "1.3.6.1.2.1.1.1.5" both resolve the entry
// registered under "1.3.6.1.2.1.1.1". The bare base OID is stripped as well
// ("1.3.6.1.2.1.1.1" is looked up as "1.3.6.1.2.1.1"), so it does not hit
// its own entry.
func (m *Mapper) Map(oid string) string {
	if m == nil {
		return ""
	}
	return m.names[StripInstance(normaliseOID(oid))]
}

// StripInstance removes a trailing scalar ".0" or a single trailing numeric
// table-index component, returning the base object OID. Exactly one
// component is ever removed per call — a ".0" suffix and a generic numeric
// index are never both stripped from the same input.
func StripInstance(oid string) string {
	if strings.HasSuffix(oid, ".0") {
		return strings.TrimSuffix(oid, ".0")
	}
	parts := strings.Split(oid, ".")
	if len(parts) > 2 && isAllDigits(parts[len(parts)-1]) {
		// Only strip when what remains still looks like a plausible base OID
		// (more than two components left); a bare numeric root is left alone.
		return strings.Join(parts[:len(parts)-1], ".")
	}
	return oid
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normaliseOID(oid string) string {
	return strings.TrimPrefix(oid, ".")
}

// yamlFiles returns all *.yml / *.yaml files under dir, sorted by path.
func yamlFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}

// decodeFile opens path and unmarshals the YAML content into out.
func decodeFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(false)
	return dec.Decode(out)
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
