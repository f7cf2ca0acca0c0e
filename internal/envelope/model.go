// Package envelope defines the unit of scanned-document work arriving on the
// queue and its strict JSON parser. An Envelope is constructed once per
// dequeued message and read-only afterwards.
package envelope

import "time"

type Envelope struct {
	ID            string `json:"id"`
	CaseRef       string `json:"case_ref"`
	LegacyCaseRef string `json:"legacy_case_ref"`
	POBox         string `json:"po_box"`
	Jurisdiction  string `json:"jurisdiction"`
	// Container names the originating scanning service; it selects the
	// per-container processing configuration.
	Container      string             `json:"container"`
	ZipFileName    string             `json:"zip_file_name"`
	FormType       string             `json:"form_type"`
	DeliveryDate   time.Time          `json:"delivery_date"`
	OpeningDate    time.Time          `json:"opening_date"`
	Classification Classification     `json:"classification"`
	Documents      []Document         `json:"documents"`
	Payments       []PaymentReference `json:"payments"`
	OCRData        []OCRField         `json:"ocr_data"`
	OCRWarnings    []string           `json:"ocr_data_validation_warnings"`
}

// Document is one scanned file inside an envelope. ControlNumber (DCN) is the
// stable identity used for cross-envelope duplicate detection.
type Document struct {
	FileName      string    `json:"file_name"`
	ControlNumber string    `json:"control_number"`
	Type          string    `json:"type"`
	Subtype       string    `json:"subtype"`
	ScannedAt     time.Time `json:"scanned_at"`
	DeliveredAt   time.Time `json:"delivered_at"`
	UUID          string    `json:"uuid"`
}

type PaymentReference struct {
	DocumentControlNumber string `json:"document_control_number"`
}

// OCRField preserves the scanner's key order, so it is a slice element rather
// than a map entry.
type OCRField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ControlNumbers returns the DCNs of all documents in envelope order.
func (e *Envelope) ControlNumbers() []string {
	numbers := make([]string, 0, len(e.Documents))
	for _, d := range e.Documents {
		numbers = append(numbers, d.ControlNumber)
	}
	return numbers
}

// HasPayments reports whether the envelope carries payment references and
// therefore requires a payment row once resolved to a case.
func (e *Envelope) HasPayments() bool {
	return len(e.Payments) > 0
}
