package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. CONFCLIENT_CONFLUENCE_API_TOKEN.
const EnvPrefix = "CONFCLIENT"

type Config struct {
	Confluence ConfluenceConfig `yaml:"confluence" mapstructure:"confluence"`
	Spaces     []SpaceAlias     `yaml:"spaces,omitempty" mapstructure:"spaces"`
}

type ConfluenceConfig struct {
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url"`
	Username           string        `yaml:"username" mapstructure:"username"`
	APIToken           string        `yaml:"api_token" mapstructure:"api_token"`
	SpaceKey           string        `yaml:"space_key,omitempty" mapstructure:"space_key"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify,omitempty" mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	PageSize           int           `yaml:"page_size,omitempty" mapstructure:"page_size"`
}

// SpaceAlias maps a short name to a space key so commands can say
// --space docs instead of --space DOCSPACE2021.
type SpaceAlias struct {
	Name string `yaml:"name" mapstructure:"name"`
	Key  string `yaml:"key" mapstructure:"key"`
}

const (
	DefaultTimeout  = 10 * time.Second
	DefaultPageSize = 25
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("confluence.base_url", "")
	v.SetDefault("confluence.username", "")
	v.SetDefault("confluence.api_token", "")
	v.SetDefault("confluence.space_key", "")
	v.SetDefault("confluence.insecure_skip_verify", false)
	v.SetDefault("confluence.timeout", DefaultTimeout)
	v.SetDefault("confluence.page_size", DefaultPageSize)
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// ReadFile decodes the YAML file at path exactly as written: no defaults,
// no environment overrides and no validation. Use it when the file itself is
// being edited; Load is for running commands.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// Validate checks the fields every command needs. space_key is optional
// because commands accept --space.
func (c *Config) Validate() error {
	if c.Confluence.BaseURL == "" {
		return fmt.Errorf("confluence.base_url is required")
	}
	if c.Confluence.Username == "" {
		return fmt.Errorf("confluence.username is required")
	}
	if c.Confluence.APIToken == "" {
		return fmt.Errorf("confluence.api_token is required")
	}
	if c.Confluence.Timeout < 0 {
		return fmt.Errorf("confluence.timeout must be positive, got %s", c.Confluence.Timeout)
	}
	if c.Confluence.PageSize < 0 {
		return fmt.Errorf("confluence.page_size must be positive, got %d", c.Confluence.PageSize)
	}
	seen := make(map[string]bool, len(c.Spaces))
	for _, s := range c.Spaces {
		if s.Name == "" || s.Key == "" {
			return fmt.Errorf("spaces entries require name and key")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate space alias '%s'", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// ResolveSpace turns a --space value into a space key. Aliases win over raw
// keys; an empty value falls back to confluence.space_key.
func (c *Config) ResolveSpace(nameOrKey string) (string, error) {
	if nameOrKey == "" {
		if c.Confluence.SpaceKey == "" {
			return "", errors.New("no space given: pass --space or set confluence.space_key")
		}
		return c.Confluence.SpaceKey, nil
	}
	for _, s := range c.Spaces {
		if s.Name == nameOrKey {
			return s.Key, nil
		}
	}
	return nameOrKey, nil
}

// ResolveConfigPath returns path when it exists, otherwise the per-user
// config file if that exists, otherwise path unchanged.
func ResolveConfigPath(path string) string {
	if fileExists(path) {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".config", "confclient", "config.yaml")
		if fileExists(userPath) {
			return userPath
		}
	}
	return path
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
