// Package payments tracks payment registration independently of the case
// mutation: every envelope with payment references gets a row, rows move from
// PENDING to a terminal status, and failed rows stay around for manual
// reprocessing. Rows are never deleted.
package payments

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusComplete Status = "COMPLETE"
	StatusFailed   Status = "FAILED"
)

// Payment is a payment registration for an envelope resolved to a case or
// exception record.
type Payment struct {
	ID                string    `json:"id"`
	EnvelopeID        string    `json:"envelope_id"`
	CaseRef           string    `json:"case_ref"`
	IsExceptionRecord bool      `json:"is_exception_record"`
	POBox             string    `json:"po_box"`
	Jurisdiction      string    `json:"jurisdiction"`
	Service           string    `json:"service"`
	ControlNumbers    []string  `json:"control_numbers"`
	Status            Status    `json:"status"`
	StatusMessage     string    `json:"status_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpdatePayment re-points an earlier payment from an exception record to the
// service case it was later resolved to.
type UpdatePayment struct {
	ID                 string    `json:"id"`
	EnvelopeID         string    `json:"envelope_id"`
	Jurisdiction       string    `json:"jurisdiction"`
	ExceptionRecordRef string    `json:"exception_record_ref"`
	NewCaseRef         string    `json:"new_case_ref"`
	Status             Status    `json:"status"`
	StatusMessage      string    `json:"status_message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
