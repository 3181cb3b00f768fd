package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Observer  ObserverConfig  `mapstructure:"observer"`
	Reminder  ReminderConfig  `mapstructure:"reminder"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool   `mapstructure:"-"`
	Dir         string `mapstructure:"-"` // 加载配置的目录
}

// FilePath 返回配置文件路径，供热更新监听使用
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, "config.yaml")
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Charset      string
	ParseTime    bool     `mapstructure:"parse_time"`
	SSLMode      string   `mapstructure:"ssl_mode"`
	Path         string   // sqlite 文件路径
	SeedStudents []string `mapstructure:"seed_students"` // 格式 "id:name"
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// WebhookConfig 导师通知地址，为空时不发送通知
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ObserverConfig 状态轮询配置
type ObserverConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// ReminderConfig 待处理干预提醒配置
type ReminderConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Spec       string        `mapstructure:"spec"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "intervention.db")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.lock_ttl", 10*time.Second)

	v.SetDefault("webhook.timeout", 5*time.Second)

	v.SetDefault("observer.poll_interval", 5*time.Second)
	v.SetDefault("observer.max_wait", 5*time.Second)

	v.SetDefault("reminder.spec", "0 * * * *")
	v.SetDefault("reminder.stale_after", 24*time.Hour)

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

// LoadConfig 从指定目录加载 config.yaml 并读取环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("INTERVENTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// 数据库
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// 服务器
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// 导师通知
	v.BindEnv("webhook.url", "N8N_WEBHOOK_URL")

	// 链路追踪
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Dir = path
	return &cfg, nil
}

// Validate 校验配置并补全派生值
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode %q", c.Server.Mode)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("webhook timeout must be positive, got %s", c.Webhook.Timeout)
	}
	// 轮询间隔以整秒下发给客户端
	if c.Observer.PollInterval < time.Second {
		return fmt.Errorf("observer poll interval must be at least 1s, got %s", c.Observer.PollInterval)
	}
	// 长轮询等待时间不超过轮询间隔
	if c.Observer.MaxWait <= 0 || c.Observer.MaxWait > c.Observer.PollInterval {
		c.Observer.MaxWait = c.Observer.PollInterval
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowMinutes <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}
