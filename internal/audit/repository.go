// Package audit keeps a trail of terminal envelope outcomes in MongoDB.
// Writes are best-effort: a lost audit event never fails an envelope.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event is one terminal outcome of processing an envelope message.
type Event struct {
	ID             string    `bson:"_id" json:"id"`
	EnvelopeID     string    `bson:"envelope_id" json:"envelope_id"`
	Container      string    `bson:"container" json:"container"`
	Jurisdiction   string    `bson:"jurisdiction" json:"jurisdiction"`
	Classification string    `bson:"classification" json:"classification"`
	Outcome        string    `bson:"outcome" json:"outcome"`
	Action         string    `bson:"action,omitempty" json:"action,omitempty"`
	CaseID         string    `bson:"case_id,omitempty" json:"case_id,omitempty"`
	Reason         string    `bson:"reason,omitempty" json:"reason,omitempty"`
	RecordedAt     time.Time `bson:"recorded_at" json:"recorded_at"`
}

const (
	OutcomeCompleted    = "completed"
	OutcomeDeadLettered = "dead_lettered"
)

type Repository interface {
	RecordEvent(ctx context.Context, event *Event) error
	EventsForEnvelope(ctx context.Context, envelopeID string) ([]Event, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("envelope_events"),
	}
}

func (r *mongoRepository) RecordEvent(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to record envelope event: %w", err)
	}
	return nil
}

func (r *mongoRepository) EventsForEnvelope(ctx context.Context, envelopeID string) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"envelope_id": envelopeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list envelope events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode envelope events: %w", err)
	}
	return events, nil
}
