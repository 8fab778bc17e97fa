package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, expands and validates configuration from a file, then checks
// it against the .checksums manifest according to the integrity mode.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	expanded := expandEnvVars(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := checkIntegrity(absPath, cfg.Integrity); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnvVars substitutes ${VAR} references with environment values.
// Unset variables expand to the empty string; validation catches required
// fields that end up empty.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.Integrity == "" {
		cfg.Integrity = "enforce"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8080"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "./data/linegate.db"
	}
	if cfg.Storage.ContentDir == "" {
		cfg.Storage.ContentDir = "./data/content"
	}
	if cfg.Publish.URL != "" && cfg.Publish.Subject == "" {
		cfg.Publish.Subject = "line.messages"
	}
}

func validate(cfg *Config) error {
	if cfg.Line.ChannelSecret == "" {
		return fmt.Errorf("line.channel_secret is required")
	}
	if cfg.Line.ChannelAccessToken == "" {
		return fmt.Errorf("line.channel_access_token is required")
	}
	if cfg.Line.ReplyEndpoint == "" {
		return fmt.Errorf("line.reply_endpoint is required")
	}
	if cfg.Line.ContentEndpoint == "" {
		return fmt.Errorf("line.content_endpoint is required")
	}
	switch cfg.Integrity {
	case "enforce", "warn", "off":
	default:
		return fmt.Errorf("integrity must be enforce, warn or off, got %q", cfg.Integrity)
	}
	return nil
}
