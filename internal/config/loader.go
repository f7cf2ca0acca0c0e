package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"caseflow/internal/constants"
)

func Load(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.envelope_topic", "BROKER_KAFKA_ENVELOPE_TOPIC")
	viper.BindEnv("broker.kafka.processed_topic", "BROKER_KAFKA_PROCESSED_TOPIC")
	viper.BindEnv("broker.kafka.dlq_topic", "BROKER_KAFKA_DLQ_TOPIC")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("clients.case_api.base_url", "CLIENTS_CASE_API_BASE_URL")
	viper.BindEnv("clients.transform.base_url", "CLIENTS_TRANSFORM_BASE_URL")
	viper.BindEnv("clients.payment_processor.base_url", "CLIENTS_PAYMENT_PROCESSOR_BASE_URL")
	viper.BindEnv("clients.auth.base_url", "CLIENTS_AUTH_BASE_URL")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("logging.level", "LOGGING_LEVEL")
}

func applyEnvOverrides(cfg *Config) {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Broker.Kafka.EnvelopeTopic == "" {
		cfg.Broker.Kafka.EnvelopeTopic = constants.DefaultEnvelopeTopic
	}
	if cfg.Broker.Kafka.ProcessedTopic == "" {
		cfg.Broker.Kafka.ProcessedTopic = constants.DefaultProcessedTopic
	}
	if cfg.Processing.MaxDeliveryCount <= 0 {
		cfg.Processing.MaxDeliveryCount = constants.DefaultMaxDeliveryCount
	}
	if cfg.Processing.MaxRetries <= 0 {
		cfg.Processing.MaxRetries = constants.DefaultMaxRetries
	}

	cfg.Server.ReadTimeoutSeconds = secondsDuration(cfg.Server.ReadTimeoutSeconds)
	cfg.Server.WriteTimeoutSeconds = secondsDuration(cfg.Server.WriteTimeoutSeconds)
	cfg.Clients.CaseAPI.TimeoutSeconds = secondsDuration(cfg.Clients.CaseAPI.TimeoutSeconds)
	cfg.Clients.Transform.TimeoutSeconds = secondsDuration(cfg.Clients.Transform.TimeoutSeconds)
	cfg.Clients.PaymentProcessor.TimeoutSeconds = secondsDuration(cfg.Clients.PaymentProcessor.TimeoutSeconds)
	cfg.Clients.Auth.TokenTTLSeconds = secondsDuration(cfg.Clients.Auth.TokenTTLSeconds)
}

// secondsDuration interprets a bare number in a *_seconds field as a count of
// seconds: viper unmarshals such a value as that many nanoseconds. Values
// written with an explicit unit (500ms, 2m) land at millisecond granularity
// or coarser and pass through unchanged.
func secondsDuration(d time.Duration) time.Duration {
	if d > 0 && d < time.Millisecond {
		return d * time.Second
	}
	return d
}
