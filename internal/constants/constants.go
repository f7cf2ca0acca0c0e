package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

// Kafka message headers carried alongside envelope payloads.
const (
	HeaderSubject               = "subject"
	HeaderDeliveryCount         = "delivery-count"
	HeaderDeadLetterReason      = "dead-letter-reason"
	HeaderDeadLetterDescription = "dead-letter-description"
)

// SubjectHeartbeat marks liveness probe messages that must be acknowledged
// without envelope processing.
const SubjectHeartbeat = "heartbeat"

const (
	DefaultEnvelopeTopic  = "envelopes"
	DefaultProcessedTopic = "processed_envelopes"
)

const (
	DeadLetterReasonProcessingError   = "Message processing error"
	DeadLetterReasonTooManyDeliveries = "Too many deliveries"
)

const (
	DefaultMaxDeliveryCount = 10
	DefaultMaxRetries       = 5
)

const (
	CacheKeyPrefixAuth = "auth:"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)
