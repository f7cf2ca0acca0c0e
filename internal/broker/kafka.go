package broker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/internal/logger"
	"caseflow/pkg/logging"
	"caseflow/pkg/metrics"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}
	return &KafkaProducer{writer: w, logger: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic:   topic,
			Key:     key,
			Value:   value,
			Headers: kafkaHeaders,
			Time:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// messageReader is the slice of kafka.Reader the consume loop uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer delivers raw messages to a ProcessorFunc and executes the
// returned disposition. Kafka has no native delivery count or dead-letter
// queue, so both are built on headers: redelivery re-publishes to the source
// topic with an incremented delivery-count header, dead-letters go to the
// configured DLQ topic with reason/description headers. The original message
// is committed in either case.
type KafkaConsumer struct {
	cfg         config.KafkaConfig
	wg          sync.WaitGroup
	reader      messageReader
	newReader   func(topic string) messageReader
	producer    *KafkaProducer
	logger      logger.Logger
	serviceName string
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	c := &KafkaConsumer{
		cfg:         cfg,
		logger:      log,
		producer:    NewKafkaProducer(cfg, log),
		serviceName: "unknown",
	}
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		})
	}
	return c
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *KafkaConsumer) Consume(ctx context.Context, topic string, process ProcessorFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	c.reader = c.newReader(topic)

	c.wg.Add(1)
	defer c.wg.Done()

	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming", "topic", topic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"topic", topic,
					"reason", "context canceled",
				)
				return ctx.Err()
			}
			// Transport-level failure is fatal for the loop. The caller
			// decides whether the service restarts; spinning here would keep
			// a dead consumer looking healthy.
			c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
				"error", err,
				"topic", topic,
			)
			return fmt.Errorf("failed to fetch kafka message: %w", err)
		}

		raw := rawMessageFrom(m)
		disposition := process(consumeCtx, raw)
		metrics.EnvelopeDispositionsTotal.WithLabelValues(disposition.String()).Inc()

		if err := c.finalize(consumeCtx, topic, m, raw, disposition); err != nil {
			c.logger.ErrorwCtx(consumeCtx, "Failed to finalize message",
				"error", err,
				"topic", topic,
				"disposition", disposition.String(),
			)
		}
	}
}

func (c *KafkaConsumer) finalize(ctx context.Context, topic string, m kafka.Message, raw RawMessage, d Disposition) error {
	switch d.Kind {
	case DispositionComplete:
		return c.reader.CommitMessages(ctx, m)

	case DispositionDeadLetter:
		if c.cfg.DLQTopic == "" {
			c.logger.WarnwCtx(ctx, "No DLQ topic configured, completing dead-lettered message",
				"topic", topic,
				"reason", d.Reason,
			)
			return c.reader.CommitMessages(ctx, m)
		}
		if err := c.producer.Publish(ctx, c.cfg.DLQTopic, m.Key, m.Value, deadLetterHeaders(raw, d)); err != nil {
			return fmt.Errorf("failed to publish to DLQ: %w", err)
		}
		metrics.DeadLetteredTotal.WithLabelValues(d.Reason).Inc()
		c.logger.InfowCtx(ctx, "Message dead-lettered",
			"source_topic", topic,
			"dlq_topic", c.cfg.DLQTopic,
			"reason", d.Reason,
			"description", d.Description,
		)
		return c.reader.CommitMessages(ctx, m)

	case DispositionLeaveForRedelivery:
		// Flat delay so a fast consumer cannot hot-loop on a conflicting
		// message; redelivery budget enforcement is the processor's job.
		delay := c.cfg.Retry.InitialInterval
		if delay <= 0 {
			delay = time.Second
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := c.producer.Publish(ctx, topic, m.Key, m.Value, redeliveryHeaders(raw)); err != nil {
			// Do not commit: the message stays pending and Kafka redelivers
			// it after a rebalance or restart.
			return fmt.Errorf("failed to re-publish for redelivery: %w", err)
		}
		metrics.RedeliveriesTotal.WithLabelValues(topic).Inc()
		return c.reader.CommitMessages(ctx, m)
	}

	return fmt.Errorf("unknown disposition %v", d.Kind)
}

func (c *KafkaConsumer) Close() error {
	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	if c.producer != nil {
		if closeErr := c.producer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	c.wg.Wait()
	return err
}

// deadLetterHeaders carries the failed message's identity and the dead-letter
// verdict onto the DLQ copy.
func deadLetterHeaders(raw RawMessage, d Disposition) map[string]string {
	return map[string]string{
		constants.HeaderSubject:               raw.Subject,
		constants.HeaderDeliveryCount:         strconv.Itoa(raw.DeliveryCount),
		constants.HeaderDeadLetterReason:      d.Reason,
		constants.HeaderDeadLetterDescription: d.Description,
	}
}

// redeliveryHeaders increments the delivery count on the re-published copy;
// rawMessageFrom reads it back on the next fetch.
func redeliveryHeaders(raw RawMessage) map[string]string {
	return map[string]string{
		constants.HeaderSubject:       raw.Subject,
		constants.HeaderDeliveryCount: strconv.Itoa(raw.DeliveryCount + 1),
	}
}

func rawMessageFrom(m kafka.Message) RawMessage {
	raw := RawMessage{Body: m.Value}
	for _, h := range m.Headers {
		switch h.Key {
		case constants.HeaderSubject:
			raw.Subject = string(h.Value)
		case constants.HeaderDeliveryCount:
			if n, err := strconv.Atoi(string(h.Value)); err == nil {
				raw.DeliveryCount = n
			}
		}
	}
	return raw
}
