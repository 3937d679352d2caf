// Package config loads the host configuration from defaults, an optional
// YAML file, and RWLAB_-prefixed environment variables, in increasing
// precedence.
package config

import (
	"fmt"
	"strings"

	"rewritelab/rewrite"

	"github.com/spf13/viper"
)

// Main is the top level configuration.
type Main struct {
	ListenAddr     string
	LogLevel       string
	LogFile        bool
	RegexCacheSize int
	Limits         rewrite.Limits
}

// Load reads the configuration. configPath may be empty, in which case only
// defaults and environment variables apply.
func Load(configPath string) (*Main, error) {
	v := viper.New()

	defaults := rewrite.DefaultLimits()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", false)
	v.SetDefault("regex_cache_size", 128)
	v.SetDefault("limits.max_iterations", defaults.MaxIterations)
	v.SetDefault("limits.max_url_length", defaults.MaxURLLength)
	v.SetDefault("limits.max_regex_subject_length", defaults.MaxRegexSubjectLength)
	v.SetDefault("limits.max_rule_count", defaults.MaxRuleCount)

	v.SetEnvPrefix("RWLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c := &Main{
		ListenAddr:     v.GetString("listen_addr"),
		LogLevel:       v.GetString("log_level"),
		LogFile:        v.GetBool("log_file"),
		RegexCacheSize: v.GetInt("regex_cache_size"),
		Limits: rewrite.Limits{
			MaxIterations:         v.GetInt("limits.max_iterations"),
			MaxURLLength:          v.GetInt("limits.max_url_length"),
			MaxRegexSubjectLength: v.GetInt("limits.max_regex_subject_length"),
			MaxRuleCount:          v.GetInt("limits.max_rule_count"),
		},
	}

	if err := validate(c); err != nil {
		return nil, err
	}

	return c, nil
}

func validate(c *Main) error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.RegexCacheSize <= 0 {
		return fmt.Errorf("regex_cache_size must be positive, got %d", c.RegexCacheSize)
	}
	if c.Limits.MaxIterations <= 0 {
		return fmt.Errorf("limits.max_iterations must be positive, got %d", c.Limits.MaxIterations)
	}
	if c.Limits.MaxURLLength <= 0 {
		return fmt.Errorf("limits.max_url_length must be positive, got %d", c.Limits.MaxURLLength)
	}
	if c.Limits.MaxRegexSubjectLength <= 0 {
		return fmt.Errorf("limits.max_regex_subject_length must be positive, got %d", c.Limits.MaxRegexSubjectLength)
	}
	if c.Limits.MaxRuleCount < 0 {
		return fmt.Errorf("limits.max_rule_count must not be negative, got %d", c.Limits.MaxRuleCount)
	}
	return nil
}
