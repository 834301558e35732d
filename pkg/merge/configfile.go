package merge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	localConfigName    = ".codemerge.yaml"
	globalConfigSubdir = ".config/codemerge"
	globalConfigName   = "config.yaml"
)

// fileConfig mirrors the YAML configuration schema. Pointer fields
// distinguish "unset" from an explicit false or empty value.
type fileConfig struct {
	Extensions   []string `mapstructure:"extensions"`
	IgnoreDirs   []string `mapstructure:"ignore_dirs"`
	ExtraIgnores []string `mapstructure:"extra_ignores"`
	Output       *string  `mapstructure:"output"`
	Tree         *bool    `mapstructure:"tree"`
	DecodePolicy *string  `mapstructure:"decode_policy"`
	Tokens       struct {
		Enabled *bool  `mapstructure:"enabled"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"tokens"`
	Clipboard *bool `mapstructure:"clipboard"`
}

// LoadConfig builds a Config from the compiled-in defaults, overlaid by the
// global configuration file and then a local one. workingDir names the merge
// root (empty means the current directory); explicitPath, when set, replaces
// local config discovery and must exist.
func LoadConfig(workingDir, explicitPath string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Root = workingDir

	discoveryDir := workingDir
	if discoveryDir == "" {
		currentDir, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("determine working directory: %w", err)
		}
		discoveryDir = currentDir
	}

	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		globalPath := filepath.Join(homeDir, filepath.FromSlash(globalConfigSubdir), globalConfigName)
		fc, loadErr := loadFileConfig(globalPath, false)
		if loadErr != nil {
			return Config{}, loadErr
		}
		cfg.apply(fc)
	}

	localPath := explicitPath
	required := explicitPath != ""
	if localPath == "" {
		localPath = filepath.Join(discoveryDir, localConfigName)
	} else if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(discoveryDir, localPath)
	}

	fc, err := loadFileConfig(localPath, required)
	if err != nil {
		return Config{}, err
	}
	cfg.apply(fc)

	return cfg, nil
}

// loadFileConfig reads one YAML configuration file. A missing file is an
// error only when required; otherwise nil is returned.
func loadFileConfig(path string, required bool) (*fileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("access configuration file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read configuration file %s: %w", path, err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse configuration file %s: %w", path, err)
	}
	return &fc, nil
}

// apply overlays the set fields of fc onto the configuration.
func (c *Config) apply(fc *fileConfig) {
	if fc == nil {
		return
	}
	if fc.Extensions != nil {
		c.Extensions = fc.Extensions
	}
	if fc.IgnoreDirs != nil {
		c.IgnoreDirs = fc.IgnoreDirs
	}
	if fc.ExtraIgnores != nil {
		c.ExtraIgnores = fc.ExtraIgnores
	}
	if fc.Output != nil {
		c.Output = *fc.Output
	}
	if fc.Tree != nil {
		c.Tree = *fc.Tree
	}
	if fc.DecodePolicy != nil {
		c.DecodePolicy = DecodePolicy(*fc.DecodePolicy)
	}
	if fc.Tokens.Enabled != nil {
		c.Tokens.Enabled = *fc.Tokens.Enabled
	}
	if fc.Tokens.Model != "" {
		c.Tokens.Model = fc.Tokens.Model
	}
	if fc.Clipboard != nil {
		c.Clipboard = *fc.Clipboard
	}
}
