// index command: build the SQLite index and query the last build.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/internal/index"
	"github.com/theplant/speckit-extension/pkg/types"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and query the SQLite index of features and maturity",
	}
	cmd.AddCommand(newIndexBuildCmd(a))
	cmd.AddCommand(newIndexQueryCmd(a))
	return cmd
}

func (a *app) openIndex() (*index.Index, error) {
	return index.Open(a.cfg.DataDir, index.WithLogger(a.logger))
}

func newIndexBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Rebuild the index from the specification tree",
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
			ix, err := a.openIndex()
			if err != nil {
				return err
			}
			defer ix.Close()

			buildID, err := ix.Build(cmd.Context(), features, ws.Store())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]any{"build_id": buildID, "features": len(features), "path": ix.Path()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d features into %s (build %s)\n", len(features), ix.Path(), buildID)
			return nil
		},
	}
}

func newIndexQueryCmd(a *app) *cobra.Command {
	var (
		level    string
		unlinked bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the last build",
		Long: "Without flags, list every story with its level and counts. --level\n" +
			"lists scenarios at that level; --unlinked lists scenarios without tests.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if level != "" && unlinked {
				return usageErrorf("--level and --unlinked are mutually exclusive")
			}
			ix, err := a.openIndex()
			if err != nil {
				return err
			}
			defer ix.Close()

			ctx := cmd.Context()
			if _, built, err := ix.LatestBuild(ctx); err != nil {
				return err
			} else if !built {
				return usageErrorf("index is empty; run \"speckit index build\" first")
			}

			var rows []index.ScenarioRow
			switch {
			case level != "":
				l, err := types.ParseMaturityLevel(level)
				if err != nil {
					return err
				}
				rows, err = ix.ScenariosByLevel(ctx, l)
				if err != nil {
					return err
				}
			case unlinked:
				rows, err = ix.UnlinkedScenarios(ctx)
				if err != nil {
					return err
				}
			default:
				stories, err := ix.StorySummaries(ctx)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, stories)
				}
				for _, s := range stories {
					fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-5s [%s] %-8s scenarios=%d tests=%d %s\n",
						s.Feature, s.StoryKey, s.Priority, s.Level, s.Scenarios, s.Tests, s.Title)
				}
				return nil
			}

			if a.flags.jsonMode {
				return printJSON(cmd, rows)
			}
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-10s %s\n", r.Feature, r.ScenarioID, r.Level)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "list scenarios at this level (none, partial, complete)")
	cmd.Flags().BoolVar(&unlinked, "unlinked", false, "list scenarios without linked tests")
	return cmd
}
