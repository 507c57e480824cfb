// tests command: list the tests linked to a story or scenario.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/internal/linker"
	"github.com/theplant/speckit-extension/pkg/types"
)

func newTestsCmd(a *app) *cobra.Command {
	var (
		scenario string
		best     bool
	)
	cmd := &cobra.Command{
		Use:   "tests <feature> <story>",
		Short: "List the tests linked to a user story or one of its scenarios",
		Long: "List the tests linked to a user story. With --scenario the list is\n" +
			"narrowed to one acceptance scenario. With --best only the most\n" +
			"representative test file (or scenario test) is printed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			n, err := parseStoryArg(args[1])
			if err != nil {
				return err
			}
			if _, ok := f.Story(n); !ok {
				return usageErrorf("%s has no %s", f.Name, types.StoryKey(n))
			}
			root := ws.Config().WorkspaceRoot

			if best && scenario == "" {
				path, ok, err := ws.BestTestFile(f, n)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: no test file for %s", types.ErrTestNotFound, types.StoryKey(n))
				}
				if a.flags.jsonMode {
					return printJSON(cmd, map[string]string{"file_path": path})
				}
				fmt.Fprintln(cmd.OutOrStdout(), relPath(root, path))
				return nil
			}

			tests, err := ws.StoryTests(f, n)
			if err != nil {
				return err
			}
			if scenario != "" {
				story, _, _, err := types.ParseScenarioID(scenario)
				if err != nil {
					return userError{err}
				}
				if story != n {
					return usageErrorf("%s does not belong to %s", scenario, types.StoryKey(n))
				}
				tests = linker.FilterScenario(tests, f.Name, scenario)
				if best && len(tests) > 1 {
					tests = tests[:1]
				}
			}
			if tests == nil {
				tests = []types.IntegrationTest{}
			}

			if a.flags.jsonMode {
				return printJSON(cmd, tests)
			}
			if len(tests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No linked tests")
				return nil
			}
			for _, t := range tests {
				line := fmt.Sprintf("%s:%d", relPath(root, t.FilePath), t.Line)
				if t.TestName == "" {
					line = relPath(root, t.FilePath)
				}
				if t.Annotation != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s]\n", line, t.TestName, t.Annotation)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", line, t.TestName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "narrow to one scenario, e.g. US1-AS2")
	cmd.Flags().BoolVar(&best, "best", false, "print only the most representative match")
	return cmd
}
