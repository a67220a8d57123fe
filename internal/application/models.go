// Package application holds the copy-application aggregate: the record whose
// lifecycle the engine tracks, its classification enums, and the closed
// status graph governing transitions.
package application

import (
	"time"

	"github.com/google/uuid"

	"copydesk/internal/sequence"
	dErrors "copydesk/pkg/domain-errors"
)

// Type distinguishes who is requesting the certified copy.
type Type string

const (
	TypeCopy       Type = "copy"
	TypeThirdParty Type = "third_party"
)

// CaseType classifies the underlying court case.
type CaseType string

const (
	CaseCivil    CaseType = "civil"
	CaseCriminal CaseType = "criminal"
)

// Priority determines processing urgency.
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityEmergent Priority = "emergent"
)

// Application is the aggregate root. Its G-Number is immutable once minted;
// StrikeOffDate is set iff Status is struck_off.
type Application struct {
	ID      uuid.UUID
	GNumber sequence.GNumber

	Type     Type
	CaseType CaseType
	Priority Priority
	BaseFee  float64

	ApplicantName     string
	ApplicantAddress  string
	AdvocateName      string
	CaseNumber        string
	CaseYear          int
	CaseDetails       string
	DocumentsRequired string

	Status        Status
	DeadlineDate  *time.Time
	StrikeOffDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so store callers never alias store-owned state.
func (a *Application) Clone() *Application {
	cp := *a
	if a.DeadlineDate != nil {
		d := *a.DeadlineDate
		cp.DeadlineDate = &d
	}
	if a.StrikeOffDate != nil {
		d := *a.StrikeOffDate
		cp.StrikeOffDate = &d
	}
	return &cp
}

// ParseType converts a raw string to a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeCopy, TypeThirdParty:
		return t, nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown application type %q", s)
}

// ParseCaseType converts a raw string to a CaseType.
func ParseCaseType(s string) (CaseType, error) {
	switch c := CaseType(s); c {
	case CaseCivil, CaseCriminal:
		return c, nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown case type %q", s)
}

// ParsePriority converts a raw string to a Priority. Empty defaults to normal.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	switch p := Priority(s); p {
	case PriorityNormal, PriorityEmergent:
		return p, nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown priority %q", s)
}
