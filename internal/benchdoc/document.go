/*
PURPOSE:
  Adapter for the benchmark's JSON config document.
  The benchmark reads its load level from this file, so every trial rewrites
  `user_counts` on disk right before the process starts.

REQUIREMENTS:
  User-specified:
  - `out_dir` is required; `user_counts` holds the single user count to apply.
  - Write `optimal_user_count` once a search succeeds.

  Implementation-discovered:
  - The document belongs to the benchmark: unknown keys must survive a rewrite untouched.
  - Integers must not be turned into floats on the way through (json.Number).
  - Validate with a JSON schema so missing and malformed fields get distinct codes.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (trial dispatch, orchestration), internal/cli (validate)
  - Uses: internal/failure
  - Dependencies: github.com/xeipuuv/gojsonschema

ERROR HANDLING:
  - ConfigMissingField when out_dir is absent or empty.
  - ConfigInvalid for any other schema violation or unparsable JSON.

USAGE:
  doc, err := benchdoc.Load(path)
  doc.SetUserCounts(66)
  err = doc.Save()

RELATED FILES:
  - internal/engine/trial.go
*/

package benchdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/daryltucker/forest-capacity/internal/failure"
)

const (
	KeyOutDir           = "out_dir"
	KeyUserCounts       = "user_counts"
	KeyOptimalUserCount = "optimal_user_count"
)

var schema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{KeyOutDir},
	"properties": map[string]interface{}{
		KeyOutDir: map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		KeyUserCounts: map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":    "integer",
				"minimum": 1,
			},
		},
		KeyOptimalUserCount: map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
		},
	},
}

// Document is the benchmark config document held in memory.
type Document struct {
	path   string
	fields map[string]interface{}
}

// Load reads and validates the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.New(failure.ConfigInvalid, "cannot read config document",
			failure.WithPath(path), failure.WithCause(err))
	}
	doc, err := Parse(data)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = path
		}
		return nil, err
	}
	doc.path = path
	return doc, nil
}

// Parse validates raw JSON and returns a Document with no backing path.
func Parse(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := make(map[string]interface{})
	if err := dec.Decode(&fields); err != nil {
		return nil, failure.New(failure.ConfigInvalid, "config document is not a JSON object", failure.WithCause(err))
	}
	return &Document{fields: fields}, nil
}

// Validate checks raw JSON against the document schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return failure.New(failure.ConfigInvalid, "config document is not valid JSON", failure.WithCause(err))
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, re := range result.Errors() {
		if missingOutDir(re) {
			return failure.New(failure.ConfigMissingField, "'out_dir' not specified in the config document",
				failure.WithField(KeyOutDir))
		}
		msgs = append(msgs, re.String())
	}
	sort.Strings(msgs)
	return failure.New(failure.ConfigInvalid, strings.Join(msgs, "; "))
}

// missingOutDir reports an absent or empty out_dir. A wrongly typed out_dir
// is an invalid document, not a missing field.
func missingOutDir(re gojsonschema.ResultError) bool {
	switch re.Type() {
	case "required":
		prop, _ := re.Details()["property"].(string)
		return prop == KeyOutDir
	case "string_gte":
		return re.Field() == KeyOutDir
	}
	return false
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// OutDir returns the artifact root.
func (d *Document) OutDir() string {
	s, _ := d.fields[KeyOutDir].(string)
	return s
}

// UserCounts returns the current user_counts list.
func (d *Document) UserCounts() []int {
	raw, ok := d.fields[KeyUserCounts].([]interface{})
	if !ok {
		return nil
	}
	counts := make([]int, 0, len(raw))
	for _, v := range raw {
		if n, ok := toInt(v); ok {
			counts = append(counts, n)
		}
	}
	return counts
}

// OptimalUserCount returns the stored optimum, if any.
func (d *Document) OptimalUserCount() (int, bool) {
	v, ok := d.fields[KeyOptimalUserCount]
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// Get returns an arbitrary top-level key.
func (d *Document) Get(key string) (interface{}, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// SetUserCounts replaces user_counts with a single entry.
func (d *Document) SetUserCounts(n int) {
	d.fields[KeyUserCounts] = []interface{}{n}
}

// SetOptimal records the search result in the document.
func (d *Document) SetOptimal(n int) {
	d.fields[KeyOptimalUserCount] = n
	d.SetUserCounts(n)
}

// Save writes the document back to its path with 4-space indentation,
// keeping the file's permissions. The write goes through a temp file so a
// crash never leaves half a document.
func (d *Document) Save() error {
	if d.path == "" {
		return fmt.Errorf("document has no path")
	}
	data, err := json.MarshalIndent(d.fields, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode config document: %w", err)
	}
	data = append(data, '\n')

	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".benchdoc-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", d.path, err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", d.path, err)
	}
	return nil
}

// Dispatch loads the document at path, sets user_counts to [n] and saves it.
// It runs once per trial, immediately before the benchmark starts.
func Dispatch(path string, n int) (*Document, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	doc.SetUserCounts(n)
	if err := doc.Save(); err != nil {
		return nil, err
	}
	return doc, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	case float64:
		return int(n), n == float64(int(n))
	}
	return 0, false
}
