// Package config loads molt.yml from the project root. Every key can be
// overridden from the environment with a MOLT_ prefix, dots becoming
// underscores (MOLT_BLUEPRINTS_DIR).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/merge"
	"github.com/simonhull/firebird-suite/molt/internal/patch"
	"github.com/simonhull/firebird-suite/molt/internal/project"
)

// DefaultMarker is the version marker file name.
const DefaultMarker = ".scaffold-version"

// DefaultIgnore lists paths never compared against blueprints.
var DefaultIgnore = []string{".git/**", "node_modules/**", "vendor/**"}

// Config is the project's molt configuration.
type Config struct {
	Marker          string          `mapstructure:"marker" yaml:"marker"`
	Policy          string          `mapstructure:"policy" yaml:"policy"`
	RenameThreshold float64         `mapstructure:"rename_threshold" yaml:"rename_threshold"`
	Project         Project         `mapstructure:"project" yaml:"project"`
	Blueprints      Blueprints      `mapstructure:"blueprints" yaml:"blueprints"`
	Ignore          []string        `mapstructure:"ignore" yaml:"ignore"`
	Codemods        []CodemodConfig `mapstructure:"codemods" yaml:"codemods,omitempty"`
}

// Project is the data blueprint templates are rendered with. Empty fields
// are filled from go.mod.
type Project struct {
	Name   string `mapstructure:"name" yaml:"name,omitempty"`
	Module string `mapstructure:"module" yaml:"module,omitempty"`
}

// Blueprints locates the scaffolding source: a directory of version
// directories, or a git repository (path or URL) with version tags.
type Blueprints struct {
	Dir    string `mapstructure:"dir" yaml:"dir,omitempty"`
	Git    string `mapstructure:"git" yaml:"git,omitempty"`
	Subdir string `mapstructure:"subdir" yaml:"subdir,omitempty"`
}

// CodemodConfig declares a project-local command codemod.
type CodemodConfig struct {
	ID          string `mapstructure:"id" yaml:"id"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
	From        string `mapstructure:"from" yaml:"from,omitempty"`
	Until       string `mapstructure:"until" yaml:"until,omitempty"`
	Command     string `mapstructure:"command" yaml:"command"`
	Confirm     bool   `mapstructure:"confirm" yaml:"confirm,omitempty"`
}

// Default returns the configuration used when molt.yml is absent.
func Default() *Config {
	return &Config{
		Marker:          DefaultMarker,
		Policy:          merge.Manual.String(),
		RenameThreshold: patch.DefaultRenameThreshold,
		Ignore:          append([]string(nil), DefaultIgnore...),
	}
}

// Load reads molt.yml in dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	d := Default()

	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(project.ConfigName, filepath.Ext(project.ConfigName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("marker", d.Marker)
	v.SetDefault("policy", d.Policy)
	v.SetDefault("rename_threshold", d.RenameThreshold)
	v.SetDefault("ignore", d.Ignore)
	for _, key := range []string{"project.name", "project.module", "blueprints.dir", "blueprints.git", "blueprints.subdir"} {
		v.SetDefault(key, "")
	}

	v.SetEnvPrefix("MOLT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s: %w", project.ConfigName, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", project.ConfigName, err)
	}

	if cfg.Blueprints.Dir != "" && !filepath.IsAbs(cfg.Blueprints.Dir) {
		cfg.Blueprints.Dir = filepath.Join(dir, cfg.Blueprints.Dir)
	}
	return &cfg, nil
}

// Validate checks the configuration is usable for an update.
func (c *Config) Validate() error {
	var errs []error

	if c.Marker == "" {
		errs = append(errs, fmt.Errorf("marker must not be empty"))
	}
	if _, err := merge.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	if c.RenameThreshold <= 0 || c.RenameThreshold > 1 {
		errs = append(errs, fmt.Errorf("rename_threshold must be in (0, 1], got %v", c.RenameThreshold))
	}
	if c.Blueprints.Dir == "" && c.Blueprints.Git == "" {
		errs = append(errs, fmt.Errorf("no blueprint source: set blueprints.dir or blueprints.git"))
	}
	if c.Blueprints.Dir != "" && c.Blueprints.Git != "" {
		errs = append(errs, fmt.Errorf("blueprints.dir and blueprints.git are mutually exclusive"))
	}
	if _, err := c.CodemodSpecs(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// MergePolicy returns the configured conflict policy.
func (c *Config) MergePolicy() (merge.Policy, error) {
	return merge.ParsePolicy(c.Policy)
}

// CodemodSpecs converts the project-local codemods to specs.
func (c *Config) CodemodSpecs() ([]codemod.Spec, error) {
	specs := make([]codemod.Spec, 0, len(c.Codemods))
	for _, cm := range c.Codemods {
		s, err := codemod.Command(cm.ID, cm.Description, cm.From, cm.Until, cm.Command, cm.Confirm)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// Write saves the configuration as molt.yml in dir.
func (c *Config) Write(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", project.ConfigName, err)
	}
	p := filepath.Join(dir, project.ConfigName)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", project.ConfigName, err)
	}
	return nil
}
