package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/audit"
	"caseflow/internal/broker"
	"caseflow/internal/config"
	"caseflow/internal/constants"
	"caseflow/internal/envelope"
	"caseflow/internal/logger"
	"caseflow/internal/routing"
)

type scriptedHandler struct {
	classification envelope.Classification
	result         routing.ProcessingResult
	err            error
	panicValue     interface{}
	calls          int
}

func (h *scriptedHandler) Classification() envelope.Classification {
	return h.classification
}

func (h *scriptedHandler) Handle(context.Context, *envelope.Envelope, int) (routing.ProcessingResult, error) {
	h.calls++
	if h.panicValue != nil {
		panic(h.panicValue)
	}
	return h.result, h.err
}

type fakeNotifier struct {
	err   error
	calls int
}

func (n *fakeNotifier) Notify(context.Context, string, string, routing.Action) error {
	n.calls++
	return n.err
}

type fakeAudit struct {
	events []audit.Event
}

func (a *fakeAudit) RecordEvent(_ context.Context, event *audit.Event) error {
	a.events = append(a.events, *event)
	return nil
}

func (a *fakeAudit) EventsForEnvelope(context.Context, string) ([]audit.Event, error) {
	return a.events, nil
}

func envelopeBody(t *testing.T, c envelope.Classification) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":             "env-1",
		"jurisdiction":   "PROBATE",
		"container":      "probate",
		"classification": string(c),
	})
	require.NoError(t, err)
	return body
}

func newProcessor(handler *scriptedHandler, notifier *fakeNotifier, auditRepo audit.Repository) *Processor {
	router := routing.NewRouter(handler)
	cfg := config.ProcessingConfig{MaxDeliveryCount: 10, MaxRetries: 5}
	return New(router, notifier, auditRepo, cfg, logger.NopLogger())
}

func TestProcessHeartbeatCompletesWithoutProcessing(t *testing.T) {
	handler := &scriptedHandler{classification: envelope.ClassificationNewApplication}
	p := newProcessor(handler, &fakeNotifier{}, nil)

	d := p.Process(context.Background(), broker.RawMessage{
		Subject: constants.SubjectHeartbeat,
		Body:    []byte("not json at all"),
	})

	assert.Equal(t, broker.Complete(), d)
	assert.Equal(t, 0, handler.calls)
}

func TestProcessMalformedPayloadDeadLetters(t *testing.T) {
	p := newProcessor(&scriptedHandler{classification: envelope.ClassificationNewApplication}, &fakeNotifier{}, nil)

	d := p.Process(context.Background(), broker.RawMessage{Body: []byte("{"), DeliveryCount: 1})

	assert.Equal(t, broker.DispositionDeadLetter, d.Kind)
	assert.Equal(t, constants.DeadLetterReasonProcessingError, d.Reason)
	assert.Contains(t, d.Description, "*json.SyntaxError", "description must name the decoder error type")
	assert.Contains(t, d.Description, "unexpected end of JSON input")
}

func TestProcessInvalidEnvelopeDeadLettersOnFirstDelivery(t *testing.T) {
	p := newProcessor(&scriptedHandler{classification: envelope.ClassificationNewApplication}, &fakeNotifier{}, nil)

	body, err := json.Marshal(map[string]interface{}{
		"id":             "env-1",
		"jurisdiction":   "PROBATE",
		"container":      "probate",
		"classification": "mystery",
	})
	require.NoError(t, err)

	d := p.Process(context.Background(), broker.RawMessage{Body: body, DeliveryCount: 1})
	assert.Equal(t, broker.DispositionDeadLetter, d.Kind)
	assert.Equal(t, constants.DeadLetterReasonProcessingError, d.Reason)
}

func TestProcessSuccessNotifiesThenCompletes(t *testing.T) {
	handler := &scriptedHandler{
		classification: envelope.ClassificationNewApplication,
		result:         routing.ProcessingResult{CaseID: "case-1", Action: routing.ActionAutoCreatedCase},
	}
	notifier := &fakeNotifier{}
	auditRepo := &fakeAudit{}
	p := newProcessor(handler, notifier, auditRepo)

	d := p.Process(context.Background(), broker.RawMessage{
		Body:          envelopeBody(t, envelope.ClassificationNewApplication),
		DeliveryCount: 1,
	})

	assert.Equal(t, broker.Complete(), d)
	assert.Equal(t, 1, notifier.calls)
	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, audit.OutcomeCompleted, auditRepo.events[0].Outcome)
	assert.Equal(t, "case-1", auditRepo.events[0].CaseID)
	assert.Equal(t, string(routing.ActionAutoCreatedCase), auditRepo.events[0].Action)
}

func TestProcessNotifierFailureLeavesForRedelivery(t *testing.T) {
	handler := &scriptedHandler{
		classification: envelope.ClassificationNewApplication,
		result:         routing.ProcessingResult{CaseID: "case-1", Action: routing.ActionAutoCreatedCase},
	}
	p := newProcessor(handler, &fakeNotifier{err: errors.New("broker down")}, nil)

	d := p.Process(context.Background(), broker.RawMessage{
		Body:          envelopeBody(t, envelope.ClassificationNewApplication),
		DeliveryCount: 1,
	})

	assert.Equal(t, broker.LeaveForRedelivery(), d)
}

func TestProcessHandlerErrorBelowBudgetLeavesForRedelivery(t *testing.T) {
	handler := &scriptedHandler{
		classification: envelope.ClassificationNewApplication,
		err:            errors.New("transient"),
	}
	notifier := &fakeNotifier{}
	p := newProcessor(handler, notifier, nil)

	d := p.Process(context.Background(), broker.RawMessage{
		Body:          envelopeBody(t, envelope.ClassificationNewApplication),
		DeliveryCount: 9,
	})

	assert.Equal(t, broker.LeaveForRedelivery(), d)
	assert.Equal(t, 0, notifier.calls)
}

func TestProcessHandlerErrorAtBudgetDeadLetters(t *testing.T) {
	handler := &scriptedHandler{
		classification: envelope.ClassificationNewApplication,
		err:            errors.New("still failing"),
	}
	auditRepo := &fakeAudit{}
	p := newProcessor(handler, &fakeNotifier{}, auditRepo)

	d := p.Process(context.Background(), broker.RawMessage{
		Body:          envelopeBody(t, envelope.ClassificationNewApplication),
		DeliveryCount: 10,
	})

	assert.Equal(t, broker.DispositionDeadLetter, d.Kind)
	assert.Equal(t, constants.DeadLetterReasonTooManyDeliveries, d.Reason)
	assert.Equal(t, "Limit of 10 reached", d.Description)

	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, audit.OutcomeDeadLettered, auditRepo.events[0].Outcome)
}

func TestProcessHandlerPanicIsContained(t *testing.T) {
	handler := &scriptedHandler{
		classification: envelope.ClassificationNewApplication,
		panicValue:     "boom",
	}
	p := newProcessor(handler, &fakeNotifier{}, nil)

	d := p.Process(context.Background(), broker.RawMessage{
		Body:          envelopeBody(t, envelope.ClassificationNewApplication),
		DeliveryCount: 1,
	})

	assert.Equal(t, broker.LeaveForRedelivery(), d)
}

func TestProcessUnroutableClassificationFollowsFailurePath(t *testing.T) {
	// Router only knows exception envelopes; a new_application envelope has no
	// handler and exhausts its deliveries like any other failure.
	handler := &scriptedHandler{classification: envelope.ClassificationException}
	p := newProcessor(handler, &fakeNotifier{}, nil)

	d := p.Process(context.Background(), broker.RawMessage{
		Body:          envelopeBody(t, envelope.ClassificationNewApplication),
		DeliveryCount: 10,
	})

	assert.Equal(t, broker.DispositionDeadLetter, d.Kind)
	assert.Equal(t, constants.DeadLetterReasonTooManyDeliveries, d.Reason)
	assert.Equal(t, 0, handler.calls)
}
