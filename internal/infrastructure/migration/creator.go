package migration

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// versionWidth matches the zero padded prefixes of the checked-in migrations.
const versionWidth = 6

// Pair is a freshly scaffolded up/down migration.
type Pair struct {
	Version  string
	UpPath   string
	DownPath string
}

// Scaffold writes an empty up/down pair numbered one past the highest
// migration in dir, creating dir when needed. Existing files are never
// overwritten.
func Scaffold(dir, title, description string) (*Pair, error) {
	slug := slugify(title)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", title)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations dir: %w", err)
	}

	names, err := List(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(names); n > 0 {
		next = versionOf(names[n-1]) + 1
	}

	version := fmt.Sprintf("%0*d", versionWidth, next)
	stem := filepath.Join(dir, version+"_"+slug)
	pair := &Pair{Version: version, UpPath: stem + ".up.sql", DownPath: stem + ".down.sql"}

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeNew(pair.UpPath, header("Migration", title, created, description)); err != nil {
		return nil, err
	}
	if err := writeNew(pair.DownPath, header("Rollback", title, created, "")); err != nil {
		_ = os.Remove(pair.UpPath)
		return nil, err
	}
	return pair, nil
}

func header(kind, title, created, description string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "-- %s: %s\n-- Created: %s\n", kind, title, created)
	if description != "" {
		fmt.Fprintf(&buf, "-- %s\n", description)
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

func writeNew(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// slugify keeps lowercase letters and digits; runs of spaces, hyphens and
// underscores become one underscore, and edge separators are dropped.
func slugify(title string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	kept := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, "_")
}

// List returns the stems ("000003_create_orders") of the up migrations in
// dir ordered by version. A missing dir has no migrations.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var stems []string
	for _, entry := range entries {
		if stem, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok && !entry.IsDir() {
			stems = append(stems, stem)
		}
	}
	slices.SortFunc(stems, func(a, b string) int {
		return cmp.Compare(versionOf(a), versionOf(b))
	})
	return stems, nil
}

func versionOf(stem string) int {
	prefix, _, _ := strings.Cut(stem, "_")
	v, _ := strconv.Atoi(prefix)
	return v
}
