package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Broker         BrokerConfig
	Logging        LoggingConfig
	Processing     ProcessingConfig
	Clients        ClientsConfig
	Management     ManagementConfig
	CircuitBreaker CircuitBreakerConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig
	Redis         RedisConfig
	MongoDB       MongoDBConfig
	RunMigrations bool `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BrokerConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers        []string    `mapstructure:"brokers"`
	GroupID        string      `mapstructure:"group_id"`
	EnvelopeTopic  string      `mapstructure:"envelope_topic"`
	ProcessedTopic string      `mapstructure:"processed_topic"`
	DLQTopic       string      `mapstructure:"dlq_topic"`
	Retry          RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProcessingConfig drives the envelope pipeline: delivery/retry budgets and
// the per-container / per-jurisdiction behavior switches.
type ProcessingConfig struct {
	// MaxDeliveryCount is the transport redelivery budget before a message
	// is dead-lettered.
	MaxDeliveryCount int `mapstructure:"max_delivery_count"`
	// MaxRetries bounds the handler-level retry-then-fallback policy for
	// potentially recoverable case mutations.
	MaxRetries int `mapstructure:"max_retries"`
	// DuplicatePreventionJurisdictions lists jurisdictions for which the
	// exception-record creator deduplicates by envelope id before creating.
	DuplicatePreventionJurisdictions []string          `mapstructure:"duplicate_prevention_jurisdictions"`
	Containers                       []ContainerConfig `mapstructure:"containers"`
}

// ContainerConfig describes one originating scanning service.
type ContainerConfig struct {
	Name                      string `mapstructure:"name"`
	Jurisdiction              string `mapstructure:"jurisdiction"`
	CaseTypeID                string `mapstructure:"case_type_id"`
	ExceptionRecordCaseTypeID string `mapstructure:"exception_record_case_type_id"`
	AutoCaseUpdateEnabled     bool   `mapstructure:"auto_case_update_enabled"`
}

func (p ProcessingConfig) Container(name string) (ContainerConfig, bool) {
	for _, c := range p.Containers {
		if c.Name == name {
			return c, true
		}
	}
	return ContainerConfig{}, false
}

func (p ProcessingConfig) DuplicatePreventionEnabled(jurisdiction string) bool {
	for _, j := range p.DuplicatePreventionJurisdictions {
		if j == jurisdiction {
			return true
		}
	}
	return false
}

type ClientsConfig struct {
	CaseAPI          HTTPClientConfig `mapstructure:"case_api"`
	Transform        HTTPClientConfig `mapstructure:"transform"`
	PaymentProcessor HTTPClientConfig `mapstructure:"payment_processor"`
	Auth             AuthClientConfig `mapstructure:"auth"`
}

type HTTPClientConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	TimeoutSeconds time.Duration `mapstructure:"timeout_seconds"`
}

type AuthClientConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	TokenTTLSeconds time.Duration `mapstructure:"token_ttl_seconds"`
}

type ManagementConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}
