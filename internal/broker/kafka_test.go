package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/internal/logger"
)

type scriptedReader struct {
	fetchErr error
}

func (r *scriptedReader) FetchMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, r.fetchErr
}

func (r *scriptedReader) CommitMessages(context.Context, ...kafka.Message) error {
	return nil
}

func (r *scriptedReader) Close() error {
	return nil
}

func TestRawMessageFromDecodesHeaders(t *testing.T) {
	raw := rawMessageFrom(kafka.Message{
		Value: []byte(`{"id":"env-1"}`),
		Headers: []kafka.Header{
			{Key: constants.HeaderSubject, Value: []byte("envelope")},
			{Key: constants.HeaderDeliveryCount, Value: []byte("3")},
			{Key: "unrelated", Value: []byte("ignored")},
		},
	})

	assert.Equal(t, []byte(`{"id":"env-1"}`), raw.Body)
	assert.Equal(t, "envelope", raw.Subject)
	assert.Equal(t, 3, raw.DeliveryCount)
}

func TestRawMessageFromDefaultsMissingDeliveryCount(t *testing.T) {
	raw := rawMessageFrom(kafka.Message{Value: []byte("{}")})
	assert.Equal(t, 0, raw.DeliveryCount)
	assert.Empty(t, raw.Subject)

	raw = rawMessageFrom(kafka.Message{
		Headers: []kafka.Header{
			{Key: constants.HeaderDeliveryCount, Value: []byte("not a number")},
		},
	})
	assert.Equal(t, 0, raw.DeliveryCount)
}

func TestRedeliveryHeadersIncrementDeliveryCount(t *testing.T) {
	headers := redeliveryHeaders(RawMessage{Subject: "envelope", DeliveryCount: 4})

	assert.Equal(t, "envelope", headers[constants.HeaderSubject])
	assert.Equal(t, "5", headers[constants.HeaderDeliveryCount])

	// The re-published copy must decode back with the incremented count, so
	// the builder and the decoder agree on header names.
	m := kafka.Message{}
	for k, v := range headers {
		m.Headers = append(m.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	roundTripped := rawMessageFrom(m)
	assert.Equal(t, 5, roundTripped.DeliveryCount)
	assert.Equal(t, "envelope", roundTripped.Subject)
}

func TestDeadLetterHeadersCarryVerdict(t *testing.T) {
	headers := deadLetterHeaders(
		RawMessage{Subject: "envelope", DeliveryCount: 10},
		DeadLetter(constants.DeadLetterReasonTooManyDeliveries, "Limit of 10 reached"),
	)

	assert.Equal(t, "envelope", headers[constants.HeaderSubject])
	assert.Equal(t, "10", headers[constants.HeaderDeliveryCount])
	assert.Equal(t, constants.DeadLetterReasonTooManyDeliveries, headers[constants.HeaderDeadLetterReason])
	assert.Equal(t, "Limit of 10 reached", headers[constants.HeaderDeadLetterDescription])
}

func TestConsumeSurfacesTransportFailure(t *testing.T) {
	c := NewKafkaConsumer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, logger.NopLogger())
	c.newReader = func(string) messageReader {
		return &scriptedReader{fetchErr: errors.New("broker unreachable")}
	}

	err := c.Consume(context.Background(), "envelopes", func(context.Context, RawMessage) Disposition {
		t.Fatal("no message should reach the processor")
		return Complete()
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestConsumeStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewKafkaConsumer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, logger.NopLogger())
	c.newReader = func(string) messageReader {
		return &scriptedReader{fetchErr: context.Canceled}
	}

	err := c.Consume(ctx, "envelopes", func(context.Context, RawMessage) Disposition {
		t.Fatal("no message should reach the processor")
		return Complete()
	})

	assert.ErrorIs(t, err, context.Canceled)
}
