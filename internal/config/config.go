package config

import (
	"bytes"
	_ "embed"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log        LogConfig       `mapstructure:"log"`
	HTTP       HTTPConfig      `mapstructure:"http"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	GraphQL    GraphQLConfig   `mapstructure:"graphql"`
	Broker     BrokerConfig    `mapstructure:"broker"`
	Beat       BeatConfig      `mapstructure:"beat"`
	Logs       JobLogsConfig   `mapstructure:"logs"`
	Cleanup    CleanupConfig   `mapstructure:"cleanup"`
	Reminders  RemindersConfig `mapstructure:"reminders"`
	LowStock   LowStockConfig  `mapstructure:"low_stock"`
	Report     ReportConfig    `mapstructure:"report"`
	Archiver   ArchiverConfig  `mapstructure:"archiver"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level string `mapstructure:"level"`
	Dev   bool   `mapstructure:"dev"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	// APIKey guards the /v1 ops endpoints; empty means unguarded.
	APIKey string `mapstructure:"api_key"`
	// RateLimitRPS caps /graphql requests per second per client IP; 0 disables.
	RateLimitRPS int `mapstructure:"rate_limit_rps"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

// GraphQLConfig points the beat jobs and the report worker at the CRM
// GraphQL endpoint they query over HTTP.
type GraphQLConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type BrokerConfig struct {
	QueueKey     string        `mapstructure:"queue_key"`
	DelayedKey   string        `mapstructure:"delayed_key"`
	ResultPrefix string        `mapstructure:"result_prefix"`
	ResultTTL    time.Duration `mapstructure:"result_ttl"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
}

type BeatConfig struct {
	JobTimeout time.Duration `mapstructure:"job_timeout"`
	Entries    []BeatEntry   `mapstructure:"entries"`
}

type BeatEntry struct {
	Name     string `mapstructure:"name"`
	Schedule string `mapstructure:"schedule"`
	Disabled bool   `mapstructure:"disabled"`
}

type JobLogsConfig struct {
	Dir               string `mapstructure:"dir"`
	HeartbeatFile     string `mapstructure:"heartbeat_file"`
	CleanupFile       string `mapstructure:"cleanup_file"`
	RemindersFile     string `mapstructure:"reminders_file"`
	LowStockFile      string `mapstructure:"low_stock_file"`
	ReportFile        string `mapstructure:"report_file"`
	ReportConciseFile string `mapstructure:"report_concise_file"`
}

type CleanupConfig struct {
	InactiveDays int    `mapstructure:"inactive_days"`
	OutboxTopic  string `mapstructure:"outbox_topic"`
}

type RemindersConfig struct {
	WindowDays int `mapstructure:"window_days"`
}

type LowStockConfig struct {
	IncrementBy int `mapstructure:"increment_by"`
}

type ReportConfig struct {
	Type       string        `mapstructure:"type"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	RecentDays int           `mapstructure:"recent_days"`
}

type ArchiverConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	BatchWait time.Duration `mapstructure:"batch_wait"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (CRMBEAT_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (CRMBEAT_*)
	v.SetEnvPrefix("CRMBEAT")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
