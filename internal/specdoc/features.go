package specdoc

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/theplant/speckit-extension/pkg/types"
)

var numberPrefixPattern = regexp.MustCompile(`^(\d+)-`)

// FeatureNumber returns the leading numeric prefix of a directory name
// ("001-login" → 1), or 0 when there is none.
func FeatureNumber(name string) int {
	m := numberPrefixPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// DisplayName strips the numeric prefix, splits on hyphens, and upper-cases
// the first letter of each word, keeping the rest as written:
// "001-OAuth-login" → "OAuth Login".
func DisplayName(name string) string {
	name = numberPrefixPattern.ReplaceAllString(name, "")
	upper := cases.Upper(language.English)
	var words []string
	for _, w := range strings.Split(name, "-") {
		if w == "" {
			continue
		}
		_, size := utf8.DecodeRuneInString(w)
		words = append(words, upper.String(w[:size])+w[size:])
	}
	return strings.Join(words, " ")
}

// ParseFeatures parses the primary document of every immediate
// subdirectory of root. Directories without one are skipped. The result is
// sorted by feature number, then by name. A missing root yields an empty
// list.
func ParseFeatures(root string) ([]types.FeatureSpec, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []types.FeatureSpec{}, nil
		}
		return nil, &types.ParseError{Path: root, Err: err}
	}

	features := []types.FeatureSpec{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		specPath := filepath.Join(root, e.Name(), SpecFileName)
		if _, err := os.Stat(specPath); err != nil {
			continue
		}
		f, err := ParseFile(specPath)
		if err != nil {
			return nil, err
		}
		features = append(features, *f)
	}

	sort.SliceStable(features, func(i, j int) bool {
		if features[i].Number != features[j].Number {
			return features[i].Number < features[j].Number
		}
		return features[i].Name < features[j].Name
	})
	return features, nil
}

// FindFeature returns the feature whose directory name equals ref, or whose
// number equals ref when ref is numeric ("1", "001").
func FindFeature(features []types.FeatureSpec, ref string) (*types.FeatureSpec, bool) {
	for i := range features {
		if features[i].Name == ref {
			return &features[i], true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		for i := range features {
			if features[i].Number == n {
				return &features[i], true
			}
		}
	}
	return nil, false
}
