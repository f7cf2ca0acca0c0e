package broker

import (
	"context"
)

// RawMessage is what the transport hands to the processor: an opaque body
// plus the subject label and the number of deliveries already attempted.
type RawMessage struct {
	Body          []byte
	Subject       string
	DeliveryCount int
}

type DispositionKind int

const (
	DispositionComplete DispositionKind = iota
	DispositionDeadLetter
	DispositionLeaveForRedelivery
)

// Disposition is the explicit three-way finalization outcome for a consumed
// message. The consumer executes it; the processor only decides it.
type Disposition struct {
	Kind        DispositionKind
	Reason      string
	Description string
}

func Complete() Disposition {
	return Disposition{Kind: DispositionComplete}
}

func DeadLetter(reason, description string) Disposition {
	return Disposition{Kind: DispositionDeadLetter, Reason: reason, Description: description}
}

func LeaveForRedelivery() Disposition {
	return Disposition{Kind: DispositionLeaveForRedelivery}
}

func (d Disposition) String() string {
	switch d.Kind {
	case DispositionComplete:
		return "complete"
	case DispositionDeadLetter:
		return "dead_letter"
	case DispositionLeaveForRedelivery:
		return "leave_for_redelivery"
	}
	return "unknown"
}

// ProcessorFunc decides the disposition for one raw message. It must not
// panic; panics are a programming error handled inside the processor.
type ProcessorFunc func(ctx context.Context, msg RawMessage) Disposition

type Consumer interface {
	Consume(ctx context.Context, topic string, process ProcessorFunc) error
	Close() error
	SetServiceName(name string)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
	Close() error
}
