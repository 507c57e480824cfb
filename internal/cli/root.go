// Package cli implements the speckit command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/internal/maturity"
	"github.com/theplant/speckit-extension/internal/workspace"
	"github.com/theplant/speckit-extension/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by one command tree: flags, the loaded
// configuration, and the lazily built workspace.
type app struct {
	flags  rootFlags
	cfg    types.Config
	logger *slog.Logger
	ws     *workspace.Workspace
}

// userError marks failures caused by the invocation rather than the system.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return userError{fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "speckit" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "speckit",
		Short: "Track specification maturity and the tests that verify it",
		Long: "speckit reads feature specifications, links user stories and acceptance\n" +
			"scenarios to the integration tests that exercise them, and records how\n" +
			"mature each scenario is.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.speckit)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.speckit-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newFeaturesCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newTestsCmd(a))
	root.AddCommand(newMaturityCmd(a))
	root.AddCommand(newRecordCmd(a))
	root.AddCommand(newTestDirCmd(a))
	root.AddCommand(newIndexCmd(a))
	root.AddCommand(newWatchCmd(a))

	return root
}

// Execute runs the command tree with os.Args and returns the process exit
// code.
func Execute(ctx context.Context) int {
	return run(ctx, NewRootCmd(), os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, stderr io.Writer) int {
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps an error to 1 for invalid input and 2 for everything else.
func exitCode(err error) int {
	var ue userError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrFeatureNotFound),
		errors.Is(err, types.ErrTestNotFound),
		errors.Is(err, types.ErrInvalidLevel),
		errors.Is(err, types.ErrInvalidStatus),
		errors.Is(err, types.ErrInvalidStoryID),
		errors.Is(err, types.ErrInvalidScenarioID),
		errors.Is(err, types.ErrSpecsDirEmpty),
		errors.Is(err, types.ErrWorkspaceRootEmpty):
		return exitUserError
	}
	return exitSysError
}

// setup installs the logger and loads the configuration.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(a.flags.configDir, a.flags.dataDir)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded",
		"specs_dir", cfg.SpecsDir,
		"workspace_root", cfg.WorkspaceRoot,
		"test_dir", cfg.TestDir,
		"data_dir", cfg.DataDir)
	return nil
}

// workspace returns the workspace for the loaded configuration.
func (a *app) workspace() (*workspace.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}
	store := maturity.NewStore(maturity.WithLogger(a.logger))
	ws, err := workspace.New(a.cfg, workspace.WithLogger(a.logger), workspace.WithStore(store))
	if err != nil {
		return nil, err
	}
	a.ws = ws
	return ws, nil
}

// feature resolves a feature argument.
func (a *app) feature(ref string) (*workspace.Workspace, *types.FeatureSpec, error) {
	ws, err := a.workspace()
	if err != nil {
		return nil, nil, err
	}
	f, err := ws.Feature(ref)
	if err != nil {
		return nil, nil, err
	}
	return ws, f, nil
}
