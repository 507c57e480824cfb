package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplant/speckit-extension/pkg/types"
)

const body = "# Feature Specification: Login\n\n### User Story 1 - A (Priority: P1)\n---\ntrailing rule above\n"

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestReadTestDirectory_MissingFileOrHeader(t *testing.T) {
	dir, ok, err := ReadTestDirectory(filepath.Join(t.TempDir(), "missing.md"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, dir)

	path := writeDoc(t, body)
	_, ok, err = ReadTestDirectory(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteTestDirectory_RoundTrip(t *testing.T) {
	path := writeDoc(t, body)

	require.NoError(t, WriteTestDirectory(path, "tests/e2e"))
	assert.Equal(t, "---\ntestDirectory: tests/e2e\n---\n"+body, readDoc(t, path))

	dir, ok, err := ReadTestDirectory(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tests/e2e", dir)

	require.NoError(t, WriteTestDirectory(path, "tests/unit"))
	dir, _, err = ReadTestDirectory(path)
	require.NoError(t, err)
	assert.Equal(t, "tests/unit", dir)

	require.NoError(t, WriteTestDirectory(path, ""))
	assert.Equal(t, body, readDoc(t, path), "body must be byte-identical after removal")
}

func TestWriteTestDirectory_ValuesNeedingQuotes(t *testing.T) {
	path := writeDoc(t, body)
	for _, v := range []string{"dir with: colon", "#hash", "123", "  padded", "true"} {
		require.NoError(t, WriteTestDirectory(path, v))
		got, ok, err := ReadTestDirectory(path)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestWriteTestDirectory_PreservesOtherKeys(t *testing.T) {
	original := "---\ntitle: Login   \n# note\ntestDirectory: old\n---\n" + body
	path := writeDoc(t, original)

	require.NoError(t, WriteTestDirectory(path, "new"))
	assert.Equal(t, "---\ntitle: Login   \n# note\ntestDirectory: new\n---\n"+body, readDoc(t, path))

	require.NoError(t, WriteTestDirectory(path, ""))
	assert.Equal(t, "---\ntitle: Login   \n# note\n---\n"+body, readDoc(t, path))
}

func TestWriteTestDirectory_CRLFHeader(t *testing.T) {
	original := "---\r\ntestDirectory: a\r\n---\r\nbody\r\n"
	path := writeDoc(t, original)

	dir, ok, err := ReadTestDirectory(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", dir)

	require.NoError(t, WriteTestDirectory(path, "b"))
	assert.Equal(t, "---\r\ntestDirectory: b\r\n---\r\nbody\r\n", readDoc(t, path))
}

func TestWriteTestDirectory_UnterminatedHeaderIsBody(t *testing.T) {
	original := "---\nnot closed\n"
	path := writeDoc(t, original)

	require.NoError(t, WriteTestDirectory(path, "x"))
	assert.Equal(t, "---\ntestDirectory: x\n---\n"+original, readDoc(t, path))
}

func TestWriteTestDirectory_MissingFile(t *testing.T) {
	err := WriteTestDirectory(filepath.Join(t.TempDir(), "spec.md"), "x")
	assert.ErrorIs(t, err, types.ErrFileNotFound)
}

func TestWriteTestDirectory_KeepsMode(t *testing.T) {
	path := writeDoc(t, body)
	require.NoError(t, os.Chmod(path, 0o644))
	require.NoError(t, WriteTestDirectory(path, "tests"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestPreviewTestDirectory_DoesNotWrite(t *testing.T) {
	path := writeDoc(t, body)
	before, after, err := PreviewTestDirectory(path, "tests")
	require.NoError(t, err)
	assert.Equal(t, body, before)
	assert.Equal(t, "---\ntestDirectory: tests\n---\n"+body, after)
	assert.Equal(t, body, readDoc(t, path))
}

func TestHeaderSetAndEmpty(t *testing.T) {
	h := Parse("---\na: 1\n---\n")
	v, ok := h.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	assert.False(t, h.Empty())

	h.Set("a", "")
	assert.True(t, h.Empty())
	h.Set("missing", "")
	assert.True(t, h.Empty())
}

func TestSetValue_EmptyHeaderBlockRemoved(t *testing.T) {
	assert.Equal(t, "rest", SetValue("---\n---\nrest", TestDirectoryKey, ""))
}
