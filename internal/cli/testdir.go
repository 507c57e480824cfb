// test-dir command: read and write the testDirectory header of a spec.
package cli

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/internal/metadata"
)

func newTestDirCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-dir",
		Short: "Read or change the test directory recorded in a specification",
	}
	cmd.AddCommand(newTestDirGetCmd(a))
	cmd.AddCommand(newTestDirSetCmd(a))
	return cmd
}

func newTestDirGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <feature>",
		Short: "Print the test directory used for a feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			_, fromHeader, err := metadata.ReadTestDirectory(f.SpecPath)
			if err != nil {
				return err
			}
			dir, err := ws.TestRoot(f.SpecPath)
			if err != nil {
				return err
			}
			source := "config"
			if fromHeader {
				source = "header"
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{"test_dir": dir, "source": source})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", dir, source)
			return nil
		},
	}
}

func newTestDirSetCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "set <feature> [dir]",
		Short: "Store the test directory in a specification header",
		Long:  "Store the test directory in the specification header. Omitting dir\nremoves the entry so the configured default applies.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			dir := ""
			if len(args) == 2 {
				dir = args[1]
			}

			if dryRun {
				before, after, err := metadata.PreviewTestDirectory(f.SpecPath, dir)
				if err != nil {
					return err
				}
				name := relPath(ws.Config().WorkspaceRoot, f.SpecPath)
				diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
					A:        difflib.SplitLines(before),
					B:        difflib.SplitLines(after),
					FromFile: "a/" + name,
					ToFile:   "b/" + name,
					Context:  3,
				})
				if err != nil {
					return err
				}
				if diff == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No change")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), diff)
				return nil
			}

			if err := ws.SetTestRoot(f.SpecPath, dir); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{"feature": f.Name, "test_dir": dir})
			}
			if dir == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed test directory from %s\n", f.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Set test directory of %s to %s\n", f.Name, dir)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the change as a unified diff without writing")
	return cmd
}
