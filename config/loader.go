// =============================================================================
// 📦 UStream 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 ustream CLI 的完整配置结构
type Config struct {
	// Sources 按顺序列出要拼接的内容来源
	Sources []SourceConfig `yaml:"sources"`

	// Redis 连接配置（仅当存在 redis 来源时使用）
	Redis RedisConfig `yaml:"redis"`

	// Metrics 指标端点配置
	Metrics MetricsConfig `yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `yaml:"log"`
}

// SourceConfig 描述一个内容来源
type SourceConfig struct {
	// Type 为 literal、file 或 redis 之一
	Type string `yaml:"type"`

	// Data 字面内容（type=literal）
	Data string `yaml:"data"`

	// Path 文件路径（type=file）
	Path string `yaml:"path"`

	// Key redis 键名（type=redis）
	Key string `yaml:"key"`
}

// RedisConfig redis 连接配置
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"USTREAM_REDIS_ADDR"`
	Password string `yaml:"password" env:"USTREAM_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

// MetricsConfig 指标端点配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig 返回带默认值的配置
func DefaultConfig() *Config {
	return &Config{
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Metrics: MetricsConfig{Addr: ":9187"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Validate 校验配置的完整性
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i, src := range c.Sources {
		switch src.Type {
		case "literal":
			if src.Data == "" {
				return fmt.Errorf("source %d: literal source requires data", i)
			}
		case "file":
			if src.Path == "" {
				return fmt.Errorf("source %d: file source requires path", i)
			}
		case "redis":
			if src.Key == "" {
				return fmt.Errorf("source %d: redis source requires key", i)
			}
		default:
			return fmt.Errorf("source %d: unknown type %q", i, src.Type)
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// =============================================================================
// 🔧 加载器
// =============================================================================

// Loader 配置加载器
type Loader struct {
	configPath string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath 指定 YAML 配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if addr := os.Getenv("USTREAM_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pw := os.Getenv("USTREAM_REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}

	return cfg, nil
}
