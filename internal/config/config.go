package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrLockTTLTooShort = errors.New("storage.lock_ttl must not be shorter than storage.op_timeout")

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Storage    StorageConfig    `mapstructure:"storage"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

// StorageConfig 存储驱动：postgres / redis / memory
// LockTTL 不能短于 OpTimeout，否则操作未结束锁已过期
type StorageConfig struct {
	Driver      string        `mapstructure:"driver"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
	LockRetry   time.Duration `mapstructure:"lock_retry"`
	OpTimeout   time.Duration `mapstructure:"op_timeout"`
	AutoMigrate bool          `mapstructure:"auto_migrate"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

// SubscriberConfig 命令订阅者 Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
	BufferSize  int `mapstructure:"buffer_size"`
}

// Load 从指定路径加载配置，环境变量 ROLEBOT_* 可覆盖文件中的值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("rolebot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Storage.OpTimeout > 0 && cfg.Storage.LockTTL < cfg.Storage.OpTimeout {
		return nil, fmt.Errorf("%w: lock_ttl=%s op_timeout=%s", ErrLockTTLTooShort, cfg.Storage.LockTTL, cfg.Storage.OpTimeout)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rolebot-logic")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.lock_ttl", "15s")
	v.SetDefault("storage.lock_retry", "50ms")
	v.SetDefault("storage.op_timeout", "10s")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 60)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("http.addr", ":8081")
	v.SetDefault("http.mode", "release")
	v.SetDefault("subscriber.worker_count", 16)
	v.SetDefault("subscriber.buffer_size", 1024)
}
