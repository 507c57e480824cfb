// init command: create the configuration directory and default config.yaml.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/theplant/speckit-extension/internal/paths"
	"github.com/theplant/speckit-extension/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	SpecsDir     string   `yaml:"specs_dir"`
	TestDir      string   `yaml:"test_dir"`
	TestPatterns []string `yaml:"test_patterns"`
	DataDir      string   `yaml:"data_dir,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration directory and a default config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}

			path := paths.ConfigFile(configDir)
			written, err := writeConfigIfMissing(path, a.flags.dataDir)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}

			if written {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left untouched and reported as not written.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	cfg := configFile{
		SpecsDir:     types.DefaultSpecsDir,
		TestDir:      types.DefaultTestDir,
		TestPatterns: types.DefaultTestPatterns,
		DataDir:      dataDir,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# speckit configuration\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}
