// Configuration loading: config.yaml via viper, SPECKIT_ environment overrides.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/theplant/speckit-extension/internal/paths"
	"github.com/theplant/speckit-extension/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "SPECKIT"

	cfgKeySpecsDir      = "specs_dir"
	cfgKeyWorkspaceRoot = "workspace_root"
	cfgKeyTestDir       = "test_dir"
	cfgKeyTestPatterns  = "test_patterns"
	cfgKeyDataDir       = "data_dir"
)

// newViper returns a viper instance with defaults and environment bindings
// but no file loaded.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(cfgKeySpecsDir, types.DefaultSpecsDir)
	v.SetDefault(cfgKeyTestDir, types.DefaultTestDir)
	v.SetDefault(cfgKeyTestPatterns, types.DefaultTestPatterns)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads config.yaml from the first directory of the search path
// that has one. A missing file is not an error. Environment variables
// prefixed SPECKIT_ override file values.
func loadConfig(configDirFlag, dataDirFlag string) (types.Config, error) {
	searchPath, err := paths.ConfigSearchPath(configDirFlag)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}

	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	for _, dir := range searchPath {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	root, err := paths.ResolveWorkspaceRoot(v.GetString(cfgKeyWorkspaceRoot))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve workspace root: %w", err)
	}
	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		SpecsDir:      v.GetString(cfgKeySpecsDir),
		WorkspaceRoot: root,
		TestDir:       v.GetString(cfgKeyTestDir),
		TestPatterns:  v.GetStringSlice(cfgKeyTestPatterns),
		DataDir:       dataDir,
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
