package benchdoc

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/forest-capacity/internal/failure"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidDocument(t *testing.T) {
	path := writeDoc(t, `{"out_dir": "/tmp/x", "user_counts": [8], "model": "llama", "max_requests": 32}`)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", doc.OutDir())
	assert.Equal(t, []int{8}, doc.UserCounts())
	assert.Equal(t, path, doc.Path())

	_, ok := doc.OptimalUserCount()
	assert.False(t, ok)
}

func TestLoadMissingOutDir(t *testing.T) {
	for name, content := range map[string]string{
		"absent": `{"user_counts": [8]}`,
		"empty":  `{"out_dir": ""}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeDoc(t, content))
			require.Error(t, err)
			assert.True(t, failure.Is(err, failure.ConfigMissingField), "got %v", err)
		})
	}
}

func TestLoadInvalidDocument(t *testing.T) {
	for name, content := range map[string]string{
		"not json":          `{out_dir`,
		"not object":        `[1, 2]`,
		"negative count":    `{"out_dir": "/tmp/x", "user_counts": [-1]}`,
		"fractional count":  `{"out_dir": "/tmp/x", "user_counts": [1.5]}`,
		"string user count": `{"out_dir": "/tmp/x", "user_counts": ["8"]}`,
		"numeric out_dir":   `{"out_dir": 5}`,
		"null out_dir":      `{"out_dir": null}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeDoc(t, content))
			require.Error(t, err)
			assert.True(t, failure.Is(err, failure.ConfigInvalid), "got %v", err)
		})
	}
}

func TestLoadUnreadable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, failure.Is(err, failure.ConfigInvalid))
}

func TestDispatchPreservesUnknownKeys(t *testing.T) {
	path := writeDoc(t, `{"out_dir": "/tmp/x", "user_counts": [8], "max_requests": 32, "nested": {"a": [1, 2]}, "big": 12345678901234}`)

	_, err := Dispatch(path, 66)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&got))

	assert.Equal(t, []interface{}{json.Number("66")}, got["user_counts"])
	assert.Equal(t, json.Number("32"), got["max_requests"])
	assert.Equal(t, json.Number("12345678901234"), got["big"])
	assert.Equal(t, map[string]interface{}{"a": []interface{}{json.Number("1"), json.Number("2")}}, got["nested"])
	assert.Contains(t, string(data), "\n    \"out_dir\"")
}

func TestDispatchTwiceKeepsSingleEntry(t *testing.T) {
	path := writeDoc(t, `{"out_dir": "/tmp/x"}`)

	_, err := Dispatch(path, 56)
	require.NoError(t, err)
	doc, err := Dispatch(path, 61)
	require.NoError(t, err)
	assert.Equal(t, []int{61}, doc.UserCounts())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{61}, reloaded.UserCounts())
}

func TestSetOptimal(t *testing.T) {
	path := writeDoc(t, `{"out_dir": "/tmp/x", "user_counts": [95]}`)
	doc, err := Load(path)
	require.NoError(t, err)

	doc.SetOptimal(90)
	require.NoError(t, doc.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	n, ok := reloaded.OptimalUserCount()
	assert.True(t, ok)
	assert.Equal(t, 90, n)
	assert.Equal(t, []int{90}, reloaded.UserCounts())
}

func TestSaveWithoutPath(t *testing.T) {
	doc, err := Parse([]byte(`{"out_dir": "/tmp/x"}`))
	require.NoError(t, err)
	assert.Error(t, doc.Save())
}

func TestSaveKeepsFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := writeDoc(t, `{"out_dir": "/tmp/x", "user_counts": [1]}`)
	require.NoError(t, os.Chmod(path, 0o600))

	_, err := Dispatch(path, 56)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
