package config

import (
	"fmt"
)

// ValidateStatic checks the parts of the configuration that cannot be
// defaulted and would otherwise fail at first use.
func ValidateStatic(cfg *Config) error {
	if len(cfg.Broker.Kafka.Brokers) == 0 {
		return fmt.Errorf("broker.kafka.brokers must not be empty")
	}
	if cfg.Broker.Kafka.GroupID == "" {
		return fmt.Errorf("broker.kafka.group_id must not be empty")
	}

	if cfg.Processing.MaxRetries > cfg.Processing.MaxDeliveryCount {
		return fmt.Errorf("processing.max_retries (%d) must not exceed processing.max_delivery_count (%d)",
			cfg.Processing.MaxRetries, cfg.Processing.MaxDeliveryCount)
	}

	seen := make(map[string]bool, len(cfg.Processing.Containers))
	for _, c := range cfg.Processing.Containers {
		if c.Name == "" {
			return fmt.Errorf("processing.containers entries must have a name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate container %q in processing.containers", c.Name)
		}
		seen[c.Name] = true
		if c.Jurisdiction == "" {
			return fmt.Errorf("container %q must declare a jurisdiction", c.Name)
		}
		if c.CaseTypeID == "" || c.ExceptionRecordCaseTypeID == "" {
			return fmt.Errorf("container %q must declare case_type_id and exception_record_case_type_id", c.Name)
		}
	}

	return nil
}
