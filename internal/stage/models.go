// Package stage holds the per-stage records an application accumulates as
// it moves through the pipeline: register entries, the notice window,
// payment and the copying job. Each record belongs to exactly one
// application and is created by the workflow service when the matching
// status transition happens.
package stage

import (
	"time"

	"github.com/google/uuid"
)

// ARegister tracks the receipt desk: when the application physically
// arrived and when it came back from the court with the case file.
// ProcessingDays stays nil until ReturnedDate is set.
type ARegister struct {
	ID             uuid.UUID
	ApplicationID  uuid.UUID
	ReceivedDate   time.Time
	ReturnedDate   *time.Time
	ProcessingDays *int
	Remarks        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BRegister tracks the round trip to the court: sent for verification,
// returned with a compliance verdict. Compliant is nil until the court
// replies.
type BRegister struct {
	ID              uuid.UUID
	ApplicationID   uuid.UUID
	SentToCourtDate time.Time
	ReturnedDate    *time.Time
	ProcessingDays  *int
	Compliant       *bool
	Remarks         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CallForNotice is the fee demand posted to the applicant. The applicant
// has until GracePeriodEnd to pay; after that the application is struck
// off and the record flagged.
type CallForNotice struct {
	ID             uuid.UUID
	ApplicationID  uuid.UUID
	NoticeDate     time.Time
	GracePeriodEnd time.Time
	PagesEstimated int
	FeeCalculated  float64
	IsStruckOff    bool
	StruckOffDate  *time.Time
	Remarks        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Payment is the settled fee. One per application.
type Payment struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	PaidDate      time.Time
	Amount        float64
	ReceiptNumber string
	ReceivedBy    string
	CreatedAt     time.Time
}

// XeroxOperation is the copying job handed to an operator. PagesCopied and
// ProcessingDays stay nil until the job completes.
type XeroxOperation struct {
	ID             uuid.UUID
	ApplicationID  uuid.UUID
	AssignedDate   time.Time
	CompletedDate  *time.Time
	PagesCopied    *int
	ProcessingDays *int
	Remarks        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
