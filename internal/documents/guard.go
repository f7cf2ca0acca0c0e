// Package documents guards against attaching the same scanned document to a
// case twice.
package documents

import (
	"fmt"
	"sort"
	"strings"

	"caseflow/internal/caseclient"
	"caseflow/internal/envelope"
	"caseflow/pkg/metrics"
)

// DuplicateDocsError reports control numbers that already sit on the target
// case but came from a different source envelope. Attaching them again would
// silently fork the document history, so the caller must stop.
type DuplicateDocsError struct {
	CaseRef        string
	ControlNumbers []string
}

func (e *DuplicateDocsError) Error() string {
	return fmt.Sprintf("documents with control numbers [%s] are already attached to case %s",
		strings.Join(e.ControlNumbers, ","), e.CaseRef)
}

// FilterDuplicates partitions incoming documents against those already on the
// case. A document whose control number is already present is dropped when the
// existing copy came from the same source reference (a redelivery of our own
// attach), and is a hard error when it came from anywhere else.
func FilterDuplicates(existing []caseclient.CaseDocument, incoming []envelope.Document, sourceRef, caseRef string) ([]envelope.Document, error) {
	bySource := make(map[string]string, len(existing))
	for _, doc := range existing {
		if doc.ControlNumber != "" {
			bySource[doc.ControlNumber] = doc.ExceptionRecordRef
		}
	}

	var fresh []envelope.Document
	var clashes []string
	for _, doc := range incoming {
		owner, present := bySource[doc.ControlNumber]
		if !present {
			fresh = append(fresh, doc)
			continue
		}
		if owner == sourceRef {
			metrics.DuplicateDocumentsTotal.WithLabelValues("dropped").Inc()
			continue
		}
		clashes = append(clashes, doc.ControlNumber)
	}

	if len(clashes) > 0 {
		sort.Strings(clashes)
		metrics.DuplicateDocumentsTotal.WithLabelValues("conflict").Inc()
		return nil, &DuplicateDocsError{CaseRef: caseRef, ControlNumbers: clashes}
	}
	return fresh, nil
}
