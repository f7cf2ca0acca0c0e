// Package caseclient is the boundary to the external case-management system:
// a two-phase start/submit mutation protocol with optimistic-concurrency
// conflict detection, plus the search operations the pipeline needs.
package caseclient

import (
	"context"
)

// Event identifiers understood by the case-management system.
const (
	EventCreateCase        = "createCase"
	EventCreateException   = "createException"
	EventAttachScannedDocs = "attachScannedDocs"
	EventAutoUpdateCase    = "autoUpdateCase"
)

// Search field paths.
const (
	FieldCaseRef       = "case.caseRef"
	FieldLegacyCaseRef = "case.legacyId"
)

// CaseDocument is a document already held on a case. ExceptionRecordRef is
// the back-reference to the exception record (or envelope) the document
// arrived through; the duplicate guard partitions on it.
type CaseDocument struct {
	FileName           string `json:"file_name"`
	ControlNumber      string `json:"control_number"`
	Type               string `json:"type"`
	URL                string `json:"url"`
	ExceptionRecordRef string `json:"exception_record_ref"`
}

type CaseRecord struct {
	ID           string                 `json:"id"`
	Reference    string                 `json:"reference"`
	Jurisdiction string                 `json:"jurisdiction"`
	CaseTypeID   string                 `json:"case_type_id"`
	State        string                 `json:"state"`
	Documents    []CaseDocument         `json:"documents"`
	Data         map[string]interface{} `json:"data"`
}

// MutationToken is the first phase of a case mutation: an event token scoped
// to one case type, case and event, consumed by exactly one Submit.
type MutationToken struct {
	EventToken   string `json:"event_token"`
	CaseID       string `json:"case_id"`
	EventID      string `json:"event_id"`
	Jurisdiction string `json:"jurisdiction"`
	CaseTypeID   string `json:"case_type_id"`
}

// CaseData is the case-shaped payload submitted with a mutation.
type CaseData map[string]interface{}

type Client interface {
	// StartMutation opens a case-mutation transaction. caseID is empty when
	// creating a new case.
	StartMutation(ctx context.Context, jurisdiction, caseTypeID, caseID, eventID string) (*MutationToken, error)
	// Submit completes a mutation started with StartMutation. A concurrent
	// mutation of the same case surfaces as a conflict error.
	Submit(ctx context.Context, token *MutationToken, data CaseData, ignoreWarnings bool) (*CaseRecord, error)
	// FindByField looks a case up by a single field path; nil when no case
	// matches.
	FindByField(ctx context.Context, jurisdiction, caseTypeID, fieldPath, value string) (*CaseRecord, error)
	// Read fetches one case by id; nil when it does not exist.
	Read(ctx context.Context, caseID, jurisdiction string) (*CaseRecord, error)
	// FindExceptionRecordIDs returns ids of exception records already created
	// for the given envelope by the given service.
	FindExceptionRecordIDs(ctx context.Context, envelopeID, service string) ([]string, error)
}
