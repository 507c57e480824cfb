// Output helpers shared by the commands.
package cli

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/pkg/types"
)

// printJSON writes v as indented JSON to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseStoryArg accepts "US<N>" or a bare story number.
func parseStoryArg(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, nil
	}
	n, err := types.ParseStoryID(strings.ToUpper(s))
	if err != nil {
		return 0, userError{err}
	}
	return n, nil
}

// relPath shortens path relative to root for display.
func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
