// features command: list parsed features with story counts and levels.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/internal/workspace"
	"github.com/theplant/speckit-extension/pkg/types"
)

type featureRow struct {
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name"`
	Number      int                 `json:"number"`
	SpecPath    string              `json:"spec_path"`
	Stories     int                 `json:"stories"`
	Scenarios   int                 `json:"scenarios"`
	Tests       int                 `json:"tests"`
	Level       types.MaturityLevel `json:"level"`
}

func newFeaturesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List features with story, scenario and test counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			features, err := ws.Refresh()
			if err != nil {
				return err
			}

			rows := make([]featureRow, 0, len(features))
			for i := range features {
				row, err := summarize(ws, &features[i])
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}

			if a.flags.jsonMode {
				return printJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No features under %s\n", ws.SpecsRoot())
				return nil
			}
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-28s stories=%d scenarios=%d tests=%d %s\n",
					r.Name, r.DisplayName, r.Stories, r.Scenarios, r.Tests, r.Level)
			}
			return nil
		},
	}
}

// summarize counts a feature's content. Its level is the lowest displayed
// story level.
func summarize(ws *workspace.Workspace, f *types.FeatureSpec) (featureRow, error) {
	row := featureRow{
		Name:        f.Name,
		DisplayName: f.DisplayName,
		Number:      f.Number,
		SpecPath:    relPath(ws.Config().WorkspaceRoot, f.SpecPath),
		Stories:     len(f.Stories),
	}
	levels := make([]types.MaturityLevel, 0, len(f.Stories))
	for i := range f.Stories {
		s := &f.Stories[i]
		row.Scenarios += len(s.Scenarios)
		for _, sc := range s.Scenarios {
			row.Tests += len(sc.Tests)
		}
		level, err := ws.StoryLevel(f.SpecPath, s.ID())
		if err != nil {
			return featureRow{}, err
		}
		levels = append(levels, level)
	}
	row.Level = types.MinLevel(levels...)
	return row, nil
}
