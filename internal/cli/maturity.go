// maturity command and its get/set/migrate/command subcommands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/pkg/types"
)

type scenarioLevel struct {
	ID    string              `json:"id"`
	Level types.MaturityLevel `json:"level"`
	Tests []types.TestEntry   `json:"tests,omitempty"`
}

type storyLevel struct {
	ID        string              `json:"id"`
	Level     types.MaturityLevel `json:"level"`
	Passed    bool                `json:"tests_passed"`
	Scenarios []scenarioLevel     `json:"scenarios"`
}

func newMaturityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maturity",
		Short: "Read and update recorded maturity levels",
	}
	cmd.AddCommand(newMaturityGetCmd(a))
	cmd.AddCommand(newMaturitySetCmd(a))
	cmd.AddCommand(newMaturityMigrateCmd(a))
	cmd.AddCommand(newMaturityCommandCmd(a))
	return cmd
}

func newMaturityGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <feature> [US<N>[-AS<M>]]",
		Short: "Print story and scenario levels",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			store := ws.Store()
			snap, err := store.Load(f.SpecPath)
			if err != nil {
				return err
			}

			filter := ""
			if len(args) == 2 {
				filter = strings.ToUpper(args[1])
			}

			var out []storyLevel
			for i := range f.Stories {
				s := &f.Stories[i]
				if filter != "" && filter != s.ID() && !strings.HasPrefix(filter, s.ID()+"-") {
					continue
				}
				level, err := ws.StoryLevel(f.SpecPath, s.ID())
				if err != nil {
					return err
				}
				passed, err := store.StoryTestsPassed(f.SpecPath, s.ID())
				if err != nil {
					return err
				}
				row := storyLevel{ID: s.ID(), Level: level, Passed: passed, Scenarios: []scenarioLevel{}}
				for _, sc := range s.Scenarios {
					if strings.Contains(filter, "-") && filter != sc.ID {
						continue
					}
					scLevel, err := ws.ScenarioLevel(f.SpecPath, s.ID(), sc.ID)
					if err != nil {
						return err
					}
					entry := scenarioLevel{ID: sc.ID, Level: scLevel}
					if rec := snap.Record.Scenario(s.ID(), sc.ID); rec != nil {
						entry.Tests = rec.Tests
					}
					row.Scenarios = append(row.Scenarios, entry)
				}
				out = append(out, row)
			}
			if filter != "" && (len(out) == 0 || strings.Contains(filter, "-") && len(out[0].Scenarios) == 0) {
				return usageErrorf("%s has no %s", f.Name, filter)
			}

			if a.flags.jsonMode {
				return printJSON(cmd, map[string]any{"format": snap.Format, "stories": out})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", f.Name, snap.Format)
			for _, s := range out {
				mark := ""
				if s.Passed {
					mark = " all tests passed"
				}
				fmt.Fprintf(w, "  %-10s %s%s\n", s.ID, s.Level, mark)
				for _, sc := range s.Scenarios {
					fmt.Fprintf(w, "    %-10s %s\n", sc.ID, sc.Level)
					for _, t := range sc.Tests {
						fmt.Fprintf(w, "      %s %s\n", t.Status, t.TestName)
					}
				}
			}
			return nil
		},
	}
}

func newMaturitySetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <feature> <US<N>-AS<M>> <none|partial|complete>",
		Short: "Record the maturity level of a scenario",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			id := strings.ToUpper(args[1])
			if _, ok := f.Scenario(id); !ok {
				return usageErrorf("%s has no scenario %s", f.Name, args[1])
			}
			level, err := types.ParseMaturityLevel(args[2])
			if err != nil {
				return err
			}
			storyKey, err := types.StoryOfScenario(id)
			if err != nil {
				return err
			}
			if err := ws.Store().SetScenarioMaturity(f.SpecPath, storyKey, id, level); err != nil {
				return err
			}
			overall, err := ws.StoryLevel(f.SpecPath, storyKey)
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, map[string]any{"scenario": id, "level": level, "story": storyKey, "story_level": overall})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s (%s %s)\n", f.Name, id, level, storyKey, overall)
			return nil
		},
	}
}

func newMaturityMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <feature>",
		Short: "Rewrite a legacy maturity.md record as maturity.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			migrated, err := ws.Store().MigrateLegacy(f.SpecPath)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]bool{"migrated": migrated})
			}
			if migrated {
				fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s to JSON\n", f.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no legacy record to migrate\n", f.Name)
			}
			return nil
		},
	}
}

func newMaturityCommandCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "command <feature> [US<N> | US<N>-AS<M> | test name]",
		Short: "Print the configured command that runs a story, scenario or test",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			tc, err := ws.Store().TestConfig(f.SpecPath)
			if err != nil {
				return err
			}
			if tc == nil {
				return usageErrorf("%s has no testConfig in its maturity record", f.Name)
			}

			line := tc.RunCommand
			if len(args) == 2 {
				target := args[1]
				switch {
				case isScenarioID(target):
					line = tc.ScenarioCommand(strings.ToUpper(target))
				case isStoryID(target):
					n, _ := types.ParseStoryID(strings.ToUpper(target))
					line = tc.UserStoryCommand(n)
				default:
					line, err = singleTestCommand(a, f, *tc, target)
					if err != nil {
						return err
					}
				}
			}

			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{"command": line})
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}

func isScenarioID(s string) bool {
	_, _, _, err := types.ParseScenarioID(strings.ToUpper(s))
	return err == nil
}

func isStoryID(s string) bool {
	_, err := types.ParseStoryID(strings.ToUpper(s))
	return err == nil
}

// singleTestCommand expands the single-test template for the linked test
// named testName.
func singleTestCommand(a *app, f *types.FeatureSpec, tc types.TestConfig, testName string) (string, error) {
	ws, err := a.workspace()
	if err != nil {
		return "", err
	}
	testDir, err := ws.TestRoot(f.SpecPath)
	if err != nil {
		return "", err
	}
	root := ws.Config().WorkspaceRoot
	for _, s := range f.Stories {
		for _, sc := range s.Scenarios {
			for _, t := range sc.Tests {
				if t.TestName == testName {
					return tc.SingleTestCommand(testName, relPath(root, t.FilePath), testDir), nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: %q", types.ErrTestNotFound, testName)
}
