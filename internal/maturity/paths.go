package maturity

import "path/filepath"

// File names beside the specification document.
const (
	FileName       = "maturity.json"
	LegacyFileName = "maturity.md"
)

// Paths returns the current and legacy maturity files for the
// specification document at specPath.
func Paths(specPath string) (current, legacy string) {
	dir := filepath.Dir(specPath)
	return filepath.Join(dir, FileName), filepath.Join(dir, LegacyFileName)
}

// canonicalKey returns the cache key for specPath: the absolute current
// maturity path with symlinks in the directory resolved when possible. Any
// file in the same directory maps to the same key.
func canonicalKey(specPath string) string {
	dir := filepath.Dir(specPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	return filepath.Join(dir, FileName)
}
