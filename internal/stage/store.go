package stage

import (
	"context"

	"github.com/google/uuid"
)

// Store persists stage records. Open* methods close out the in-flight
// record for an application (set its return/completion fields); they
// return sentinel.ErrNotFound when no open record exists.
type Store interface {
	CreateARegister(ctx context.Context, rec *ARegister) error
	CloseARegister(ctx context.Context, rec *ARegister) error
	ARegisterByApplication(ctx context.Context, applicationID uuid.UUID) (*ARegister, error)

	CreateBRegister(ctx context.Context, rec *BRegister) error
	CloseBRegister(ctx context.Context, rec *BRegister) error
	BRegisterByApplication(ctx context.Context, applicationID uuid.UUID) (*BRegister, error)

	CreateCallForNotice(ctx context.Context, rec *CallForNotice) error
	UpdateCallForNotice(ctx context.Context, rec *CallForNotice) error
	CallForNoticeByApplication(ctx context.Context, applicationID uuid.UUID) (*CallForNotice, error)
	ListOpenNotices(ctx context.Context) ([]CallForNotice, error)

	CreatePayment(ctx context.Context, rec *Payment) error
	PaymentByApplication(ctx context.Context, applicationID uuid.UUID) (*Payment, error)

	CreateXerox(ctx context.Context, rec *XeroxOperation) error
	CloseXerox(ctx context.Context, rec *XeroxOperation) error
	XeroxByApplication(ctx context.Context, applicationID uuid.UUID) (*XeroxOperation, error)
}
