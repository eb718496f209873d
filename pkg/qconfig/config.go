// Package qconfig loads project configuration (qsite.yaml) and the
// environment that points qsite at its backends.
package qconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/quatton/qsite/pkg/qerr"
)

type Tool struct {
	Binary string `mapstructure:"binary"`
	Aspect string `mapstructure:"aspect"`
}

type Config struct {
	BucketName  string `mapstructure:"bucketName"`
	Package     string `mapstructure:"package"`
	Variant     string `mapstructure:"variant"`
	Workspace   string `mapstructure:"workspace"`
	Tool        Tool   `mapstructure:"tool"`
	Project     string `mapstructure:"project"`
	Stack       string `mapstructure:"stack"`
	Region      string `mapstructure:"region"`
	Concurrency int    `mapstructure:"concurrency"`
	KeepStale   bool   `mapstructure:"keepStale"`

	v *viper.Viper
}

const (
	EnvPrefix  = "QSITE"
	ConfigName = "qsite"
	ConfigRoot = ".qsite"

	BucketNameKey  = "bucketName"
	PackageKey     = "package"
	VariantKey     = "variant"
	WorkspaceKey   = "workspace"
	ToolBinaryKey  = "tool.binary"
	ToolAspectKey  = "tool.aspect"
	ProjectKey     = "project"
	StackKey       = "stack"
	RegionKey      = "region"
	ConcurrencyKey = "concurrency"
	KeepStaleKey   = "keepStale"
)

// LoadConfig creates a Config backed by its own viper instance.
// With an empty cfgFile it reads qsite.yaml from the current directory and
// merges .qsite/config.yaml on top.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, qerr.WithSubject(qerr.CodeConfigInvalid, cfgFile, fmt.Errorf("reading config file: %w", err))
		}
	} else {
		for _, name := range []string{ConfigName + ".yaml", ConfigName + ".yml", "." + ConfigName + ".yaml"} {
			if _, err := os.Stat(name); err == nil {
				v.SetConfigFile(name)
				if err := v.ReadInConfig(); err != nil {
					return nil, qerr.WithSubject(qerr.CodeConfigInvalid, name, fmt.Errorf("reading config file: %w", err))
				}
				break
			}
		}

		localConfigPath := filepath.Join(ConfigRoot, "config.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, qerr.WithSubject(qerr.CodeConfigInvalid, localConfigPath, fmt.Errorf("merging local config: %w", err))
			}
		}
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, qerr.New(qerr.CodeConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	cfg.v = v
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// keys without a default still need registering so env overrides unmarshal
	v.SetDefault(BucketNameKey, "")
	v.SetDefault(PackageKey, "")
	v.SetDefault(VariantKey, "")
	v.SetDefault(KeepStaleKey, false)

	v.SetDefault(WorkspaceKey, ".")
	v.SetDefault(ToolBinaryKey, "bit")
	v.SetDefault(ToolAspectKey, "teambit.harmony/application")
	v.SetDefault(ProjectKey, "qsite")
	v.SetDefault(StackKey, "dev")
	v.SetDefault(RegionKey, "us-east-1")
	v.SetDefault(ConcurrencyKey, 8)
}

// Validate reports every problem with the stack settings at once.
// Site inputs (bucket, package) are checked where they are used.
func (c *Config) Validate() error {
	var errs []error
	if c.Project == "" {
		errs = append(errs, errors.New("project must not be empty"))
	}
	if c.Stack == "" {
		errs = append(errs, errors.New("stack must not be empty"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("region must not be empty"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Tool.Binary == "" {
		errs = append(errs, errors.New("tool.binary must not be empty"))
	}
	return qerr.New(qerr.CodeConfigInvalid, errors.Join(errs...))
}

// Set overrides a key, typically from a CLI flag, and refreshes the struct.
func (c *Config) Set(key string, value any) error {
	if c.v == nil {
		return errors.New("config not loaded")
	}
	c.v.Set(key, value)
	if err := c.v.Unmarshal(c); err != nil {
		return qerr.New(qerr.CodeConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}
	return nil
}

// GetString returns a string value from the underlying viper instance
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// Viper returns the underlying viper instance
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// ConfigFileUsed returns the config file that was used (if any)
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}
