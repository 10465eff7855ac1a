package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

//go:embed config.dev.yaml
var embeddedConfig []byte

var config *Config

type DatabaseConfig struct {
	URL string `yaml:"url"`
	DB  string `yaml:"db"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TargetConfig 上游服务配置。ClientID/SecretKey 非空时转发请求会使用该凭证重新签名
type TargetConfig struct {
	URL       string `yaml:"url"`
	Timeout   int    `yaml:"timeout"` // 毫秒
	ClientID  string `yaml:"client_id"`
	SecretKey string `yaml:"secret_key"`
	Algorithm string `yaml:"algorithm"`
}

// SignatureConfig 签名校验配置
type SignatureConfig struct {
	Algorithm        string `yaml:"algorithm"`
	TimeWindow       int    `yaml:"time_window"`       // 有效期（秒）
	FutureSkew       int    `yaml:"future_skew"`       // 允许的未来时间偏差（秒），0 表示不校验
	ReplayProtection string `yaml:"replay_protection"` // off, memory, redis
	NoncePrefix      string `yaml:"nonce_prefix"`
	FailureLimit     int    `yaml:"failure_limit"` // 每分钟允许的校验失败次数，0 表示不限制
}

// LogConfig 日志配置
type LogConfig struct {
	Driver   string `yaml:"driver"` // console, single, daily, mongodb
	Path     string `yaml:"path"`
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // json, plain
	Debug    bool   `yaml:"debug"`
	KeepDays int    `yaml:"keep_days"`

	// mongodb 驱动，url/database 为空时沿用 database 配置
	URL        string `yaml:"url"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Buffer     bool   `yaml:"buffer"` // 批量写入
}

type Config struct {
	Port      int                     `yaml:"port"`
	Database  DatabaseConfig          `yaml:"database"`
	Redis     RedisConfig             `yaml:"redis"`
	Signature SignatureConfig         `yaml:"signature"`
	Log       LogConfig               `yaml:"log"`
	Targets   map[string]TargetConfig `yaml:"targets"`
}

func NewConfig() (*Config, error) {
	var configData []byte
	var err error

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		configData, err = os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		configData = embeddedConfig
	}

	c, err := Parse(configData)
	if err != nil {
		return nil, err
	}

	config = c
	return c, nil
}

// Parse 解析配置内容并填充默认值
func Parse(data []byte) (*Config, error) {
	c := new(Config)
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.applyDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Signature.Algorithm == "" {
		c.Signature.Algorithm = "sha256"
	}
	if c.Signature.TimeWindow <= 0 {
		c.Signature.TimeWindow = 60
	}
	if c.Signature.ReplayProtection == "" {
		c.Signature.ReplayProtection = "off"
	}
	if c.Log.Driver == "" {
		c.Log.Driver = "console"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Debug {
		c.Log.Level = "debug"
	}
	if c.Log.Driver == "mongodb" {
		if c.Log.URL == "" {
			c.Log.URL = c.Database.URL
		}
		if c.Log.Database == "" {
			c.Log.Database = c.Database.DB
		}
		if c.Log.Collection == "" {
			c.Log.Collection = "sig_logs"
		}
	}
}

func (c *Config) validate() error {
	switch c.Signature.ReplayProtection {
	case "off", "memory", "redis":
	default:
		return fmt.Errorf("invalid replay_protection: %s", c.Signature.ReplayProtection)
	}
	if c.Signature.ReplayProtection == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("replay_protection redis requires redis.addr")
	}
	if c.Signature.FutureSkew < 0 {
		return fmt.Errorf("invalid future_skew: %d", c.Signature.FutureSkew)
	}
	if c.Signature.FailureLimit < 0 {
		return fmt.Errorf("invalid failure_limit: %d", c.Signature.FailureLimit)
	}
	switch c.Log.Driver {
	case "console", "single", "daily":
	case "mongodb":
		if c.Log.URL == "" || c.Log.Database == "" {
			return fmt.Errorf("log driver mongodb requires a url and database")
		}
	default:
		return fmt.Errorf("invalid log driver: %s", c.Log.Driver)
	}
	for name, target := range c.Targets {
		if target.URL == "" {
			return fmt.Errorf("target %s: url is required", name)
		}
		if (target.ClientID == "") != (target.SecretKey == "") {
			return fmt.Errorf("target %s: client_id and secret_key must be set together", name)
		}
	}
	return nil
}

func GetConfig() *Config {
	return config
}
