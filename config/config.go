// Package config 加载 aura-chat 中继服务的配置。
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/LubyRuffy/aurachat"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 是环境变量前缀，例如 AURA_LISTEN -> listen，AURA_GATEWAY_URL -> gateway_url。
const EnvPrefix = "AURA_"

const maxConfigFileSize = 1 << 20

type Config struct {
	Listen       string   `koanf:"listen"`
	BasePath     string   `koanf:"base_path"`
	GatewayURL   string   `koanf:"gateway_url"`
	Model        string   `koanf:"model"`
	AuthSource   string   `koanf:"auth_source"`
	AuthFile     string   `koanf:"auth_file"`
	AllowOrigins []string `koanf:"allow_origins"`
	MaxLinkChars int      `koanf:"max_link_chars"`
	LogMode      string   `koanf:"log_mode"`
}

// Default 返回内置默认值。
func Default() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		BasePath:     aurachat.DefaultRelayBasePath,
		GatewayURL:   aurachat.DefaultGatewayURL,
		Model:        aurachat.DefaultModelID,
		AuthSource:   "env",
		AllowOrigins: []string{"*"},
		MaxLinkChars: 8000,
		LogMode:      "dev",
	}
}

// Load 依次叠加：默认值 -> YAML 文件（path 为空时跳过）-> AURA_ 环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address is required")
	}
	if !aurachat.IsSupportedModelID(c.Model) {
		return fmt.Errorf("unsupported model: %s", c.Model)
	}
	switch strings.ToLower(strings.TrimSpace(c.AuthSource)) {
	case "env", "file", "auto":
	default:
		return fmt.Errorf("unsupported auth source: %s", c.AuthSource)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogMode)) {
	case "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("unsupported log mode: %s", c.LogMode)
	}
	if c.MaxLinkChars < 0 {
		return fmt.Errorf("max_link_chars must not be negative")
	}
	return nil
}
