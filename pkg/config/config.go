package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Queue     QueueConfig
	Health    HealthConfig
	Scraper   ScraperConfig
	Report    ReportConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type SchedulerConfig struct {
	Secret string
}

type QueueConfig struct {
	BatchSize       int
	RetentionDays   int
	LeaseTTLMinutes int
	DefaultPriority int
}

type HealthConfig struct {
	StoreLatencyDegradedMS int
	BacklogDegraded        int
	BacklogUnhealthy       int
	IssueWindowHours       int
}

type ScraperConfig struct {
	UserAgent     string
	TimeoutSec    int
	PauseMS       int
	MDNSectionCap int
	DevDocsCap    int
	NewsCap       int
}

type ReportConfig struct {
	DiscordWebhookURL string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/javari-brain")

	viper.SetEnvPrefix("BRAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *QueueConfig) LeaseTTL() time.Duration {
	return time.Duration(c.LeaseTTLMinutes) * time.Minute
}

func (c *QueueConfig) RetentionAge() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 300)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/brain.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 300)

	viper.SetDefault("scheduler.secret", "")

	viper.SetDefault("queue.batchSize", 50)
	viper.SetDefault("queue.retentionDays", 7)
	viper.SetDefault("queue.leaseTTLMinutes", 10)
	viper.SetDefault("queue.defaultPriority", 5)

	viper.SetDefault("health.storeLatencyDegradedMS", 2000)
	viper.SetDefault("health.backlogDegraded", 5000)
	viper.SetDefault("health.backlogUnhealthy", 10000)
	viper.SetDefault("health.issueWindowHours", 24)

	viper.SetDefault("scraper.userAgent", "JavariAI/1.0 (Learning Bot)")
	viper.SetDefault("scraper.timeoutSec", 10)
	viper.SetDefault("scraper.pauseMS", 300)
	viper.SetDefault("scraper.mdnSectionCap", 50)
	viper.SetDefault("scraper.devDocsCap", 100)
	viper.SetDefault("scraper.newsCap", 30)

	viper.SetDefault("report.discordWebhookURL", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
