// Package domain holds the document model and the pure verification rules.
// The combined status is always derived from the two party opinions; it is
// never written independently.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OwnerKind identifies the entity a document belongs to.
type OwnerKind string

const (
	OwnerRegistration OwnerKind = "registration"
	OwnerLoan         OwnerKind = "loan"
)

// Party is one of the two verifying departments.
type Party string

const (
	PartyCounsellor Party = "counsellor"
	PartyAdmission  Party = "admission"
)

// Decision is one party's verdict on a document.
type Decision string

const (
	DecisionVerified Decision = "verified"
	DecisionRejected Decision = "rejected"
)

// CombinedStatus is the derived overall document state.
type CombinedStatus string

const (
	StatusUploaded CombinedStatus = "uploaded"
	StatusVerified CombinedStatus = "verified"
	StatusRejected CombinedStatus = "rejected"
)

// Opinion is one party's recorded verdict. A zero Status means the party
// has not looked at the document yet.
type Opinion struct {
	Status  Decision
	By      *uuid.UUID
	At      *time.Time
	Remarks string
}

// Document is one uploaded file with its two verification opinions, unique
// per (owner, docID).
type Document struct {
	ID          uuid.UUID
	OwnerKind   OwnerKind
	OwnerID     uuid.UUID
	DocID       string
	FileName    string
	FilePath    string
	ContentType string
	Status      CombinedStatus
	Counsellor  Opinion
	Admission   Opinion
	UploadedBy  uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Combine derives the overall status from the two opinions. Admission is
// the final authority: only its verified verdict produces Verified. Any
// rejection short-circuits because the subject must re-upload before either
// party re-evaluates.
func Combine(counsellor, admission Decision) CombinedStatus {
	if counsellor == DecisionRejected || admission == DecisionRejected {
		return StatusRejected
	}
	if admission == DecisionVerified {
		return StatusVerified
	}
	return StatusUploaded
}

// Completeness summarizes how far a subject is through its required set.
type Completeness struct {
	Complete bool
	Missing  []string
	Progress int
}

// EvaluateCompleteness checks the required doc ids against the documents
// present. A doc counts only when its combined status is verified.
func EvaluateCompleteness(docs []Document, required []string) Completeness {
	verified := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc.Status == StatusVerified {
			verified[doc.DocID] = true
		}
	}

	result := Completeness{Missing: []string{}}
	done := 0
	for _, docID := range required {
		if verified[docID] {
			done++
		} else {
			result.Missing = append(result.Missing, docID)
		}
	}

	if len(required) == 0 {
		result.Complete = true
		result.Progress = 100
		return result
	}

	result.Complete = done == len(required)
	result.Progress = done * 100 / len(required)
	return result
}
