package envelope

import "fmt"

// Classification drives which handler processes an envelope.
type Classification string

const (
	ClassificationNewApplication           Classification = "new_application"
	ClassificationException                Classification = "exception"
	ClassificationSupplementaryEvidence    Classification = "supplementary_evidence"
	ClassificationSupplementaryEvidenceOCR Classification = "supplementary_evidence_with_ocr"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationNewApplication,
		ClassificationException,
		ClassificationSupplementaryEvidence,
		ClassificationSupplementaryEvidenceOCR:
		return true
	}
	return false
}

func (c Classification) String() string {
	return string(c)
}

func ParseClassification(s string) (Classification, error) {
	c := Classification(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown classification %q", s)
	}
	return c, nil
}
