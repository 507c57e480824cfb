package specdoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SpecFileName), []byte(content), 0o644))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"001-user-login", "User Login"},
		{"user-login", "User Login"},
		{"42-api", "Api"},
		{"007--double--dash", "Double Dash"},
		{"plain", "Plain"},
		{"001-OAuth-login", "OAuth Login"},
		{"002-api-v2-eTag", "Api V2 ETag"},
		{"003-élan", "Élan"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.in))
		})
	}
}

func TestFeatureNumber(t *testing.T) {
	assert.Equal(t, 1, FeatureNumber("001-login"))
	assert.Equal(t, 120, FeatureNumber("120-search"))
	assert.Equal(t, 0, FeatureNumber("login"))
	assert.Equal(t, 0, FeatureNumber("001login"))
}

func TestParseFeatures_SortedAndSkipping(t *testing.T) {
	root := t.TempDir()
	story := "### User Story 1 - A (Priority: P1)\n"
	writeSpec(t, root, "010-c", story)
	writeSpec(t, root, "002-b", story)
	writeSpec(t, root, "001-a", story)
	writeSpec(t, root, "unnumbered", story)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	features, err := ParseFeatures(root)
	require.NoError(t, err)

	var names []string
	for _, f := range features {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"unnumbered", "001-a", "002-b", "010-c"}, names)
	assert.Len(t, features[1].Stories, 1)
}

func TestParseFeatures_EmptyAndMissingRoot(t *testing.T) {
	root := t.TempDir()
	features, err := ParseFeatures(root)
	require.NoError(t, err)
	assert.NotNil(t, features)
	assert.Empty(t, features)

	features, err = ParseFeatures(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestFindFeature(t *testing.T) {
	root := t.TempDir()
	writeSpec(t, root, "001-login", "")
	writeSpec(t, root, "002-search", "")
	features, err := ParseFeatures(root)
	require.NoError(t, err)

	f, ok := FindFeature(features, "002-search")
	require.True(t, ok)
	assert.Equal(t, 2, f.Number)

	f, ok = FindFeature(features, "001")
	require.True(t, ok)
	assert.Equal(t, "001-login", f.Name)

	_, ok = FindFeature(features, "003")
	assert.False(t, ok)
}
