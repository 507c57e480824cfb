// show command: print one feature with its stories, scenarios and linked tests.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/internal/workspace"
	"github.com/theplant/speckit-extension/pkg/types"
)

type showScenario struct {
	ID    string                  `json:"id"`
	Level types.MaturityLevel     `json:"level"`
	Given string                  `json:"given"`
	When  string                  `json:"when"`
	Then  string                  `json:"then"`
	Line  int                     `json:"line"`
	Tests []types.IntegrationTest `json:"tests"`
}

type showStory struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Priority        string              `json:"priority"`
	Level           types.MaturityLevel `json:"level"`
	Lines           [2]int              `json:"lines"`
	WhyPriority     string              `json:"why_priority,omitempty"`
	IndependentTest string              `json:"independent_test,omitempty"`
	Scenarios       []showScenario      `json:"scenarios"`
}

type showFeature struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	SpecPath    string      `json:"spec_path"`
	PlanPath    string      `json:"plan_path,omitempty"`
	TestDir     string      `json:"test_dir"`
	Stories     []showStory `json:"stories"`
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <feature>",
		Short: "Show a feature's stories, scenarios, levels and linked tests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			out, err := describe(ws, f)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, out)
			}
			writeFeature(cmd.OutOrStdout(), ws.Config().WorkspaceRoot, out)
			return nil
		},
	}
}

func describe(ws *workspace.Workspace, f *types.FeatureSpec) (showFeature, error) {
	testDir, err := ws.TestRoot(f.SpecPath)
	if err != nil {
		return showFeature{}, err
	}
	out := showFeature{
		Name:        f.Name,
		DisplayName: f.DisplayName,
		SpecPath:    f.SpecPath,
		PlanPath:    f.PlanPath,
		TestDir:     testDir,
		Stories:     []showStory{},
	}
	for i := range f.Stories {
		s := &f.Stories[i]
		level, err := ws.StoryLevel(f.SpecPath, s.ID())
		if err != nil {
			return showFeature{}, err
		}
		story := showStory{
			ID:              s.ID(),
			Title:           s.Title,
			Priority:        s.Priority.String(),
			Level:           level,
			Lines:           [2]int{s.StartLine, s.EndLine},
			WhyPriority:     s.WhyPriority,
			IndependentTest: s.IndependentTest,
			Scenarios:       []showScenario{},
		}
		for _, sc := range s.Scenarios {
			scLevel, err := ws.ScenarioLevel(f.SpecPath, s.ID(), sc.ID)
			if err != nil {
				return showFeature{}, err
			}
			tests := sc.Tests
			if tests == nil {
				tests = []types.IntegrationTest{}
			}
			story.Scenarios = append(story.Scenarios, showScenario{
				ID: sc.ID, Level: scLevel, Given: sc.Given, When: sc.When, Then: sc.Then, Line: sc.Line, Tests: tests,
			})
		}
		out.Stories = append(out.Stories, story)
	}
	return out, nil
}

func writeFeature(w io.Writer, root string, f showFeature) {
	fmt.Fprintf(w, "%s: %s\n", f.Name, f.DisplayName)
	fmt.Fprintf(w, "  spec: %s\n", relPath(root, f.SpecPath))
	fmt.Fprintf(w, "  tests: %s\n", f.TestDir)
	for _, s := range f.Stories {
		fmt.Fprintf(w, "\n  %s [%s] %s (%s)\n", s.ID, s.Priority, s.Title, s.Level)
		for _, sc := range s.Scenarios {
			fmt.Fprintf(w, "    %-10s %-8s tests=%d\n", sc.ID, sc.Level, len(sc.Tests))
			fmt.Fprintf(w, "      Given %s, When %s, Then %s\n", sc.Given, sc.When, sc.Then)
			for _, t := range sc.Tests {
				fmt.Fprintf(w, "      - %s:%d %s\n", relPath(root, t.FilePath), t.Line, t.TestName)
			}
		}
	}
}
