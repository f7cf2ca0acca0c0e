// Package notify publishes processed-envelope notifications for downstream
// consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"caseflow/internal/broker"
	"caseflow/internal/routing"
)

// Notifier tells downstream systems an envelope has been resolved. A failed
// notification leaves the carrying message unfinalized so it is redelivered.
type Notifier interface {
	Notify(ctx context.Context, envelopeID, caseID string, action routing.Action) error
}

// Notification is the message published to the processed topic.
type Notification struct {
	EnvelopeID  string    `json:"envelope_id"`
	CaseID      string    `json:"case_id"`
	Action      string    `json:"action"`
	ProcessedAt time.Time `json:"processed_at"`
}

type KafkaNotifier struct {
	producer broker.Producer
	topic    string
}

func NewKafkaNotifier(producer broker.Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, envelopeID, caseID string, action routing.Action) error {
	payload, err := json.Marshal(Notification{
		EnvelopeID:  envelopeID,
		CaseID:      caseID,
		Action:      string(action),
		ProcessedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	if err := n.producer.Publish(ctx, n.topic, []byte(envelopeID), payload, nil); err != nil {
		return fmt.Errorf("publishing notification for envelope %s: %w", envelopeID, err)
	}
	return nil
}
