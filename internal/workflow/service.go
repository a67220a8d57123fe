// Package workflow drives applications through the certified-copy pipeline.
// It owns the status transitions, their stage side effects and the audit
// trail; the stores underneath are pure persistence.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"copydesk/internal/application"
	"copydesk/internal/audit"
	"copydesk/internal/platform/metrics"
	"copydesk/internal/sequence"
	"copydesk/internal/stage"
	dErrors "copydesk/pkg/domain-errors"
	"copydesk/pkg/platform/sentinel"
)

// TxRunner executes fn atomically. The postgres runner opens a *sql.Tx and
// threads it through the context so every store call inside fn joins it;
// the in-memory runner is a coarse lock.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores bundles the persistence the service works against.
type Stores struct {
	Applications application.Store
	Stages       stage.Store
	Audit        audit.Store
}

// Policy holds the tunable business numbers.
type Policy struct {
	GraceDays   int     // days the applicant has to pay after a notice
	PerPageRate float64 // fee per estimated page
	BaseFee     float64 // flat filing fee added to the copy fee
}

type Service struct {
	stores    Stores
	allocator sequence.Allocator
	txRunner  TxRunner
	policy    Policy
	publisher audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	clock     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(stores Stores, allocator sequence.Allocator, txRunner TxRunner, policy Policy, opts ...Option) *Service {
	s := &Service{
		stores:    stores,
		allocator: allocator,
		txRunner:  txRunner,
		policy:    policy,
		publisher: audit.NopPublisher{},
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draft is the applicant-supplied part of a new application.
type Draft struct {
	Type              application.Type
	CaseType          application.CaseType
	Priority          application.Priority
	ApplicantName     string
	ApplicantAddress  string
	AdvocateName      string
	CaseNumber        string
	CaseYear          int
	CaseDetails       string
	DocumentsRequired string
	DeadlineDate      *time.Time
}

func (d Draft) validate() error {
	if d.ApplicantName == "" {
		return dErrors.New(dErrors.CodeBadRequest, "applicant name required")
	}
	if d.CaseNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "case number required")
	}
	if d.CaseYear <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "case year required")
	}
	return nil
}

// Create registers a new application. The G-Number is allocated before the
// transaction opens: issued numbers are never reused, so a failed create
// burns its number rather than risking a duplicate.
func (s *Service) Create(ctx context.Context, draft Draft, actor string) (*application.Application, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	gNumber, err := s.allocator.Allocate(ctx, now.Year())
	if err != nil {
		return nil, err
	}

	app := &application.Application{
		ID:                uuid.New(),
		GNumber:           gNumber,
		Type:              draft.Type,
		CaseType:          draft.CaseType,
		Priority:          draft.Priority,
		BaseFee:           s.policy.BaseFee,
		ApplicantName:     draft.ApplicantName,
		ApplicantAddress:  draft.ApplicantAddress,
		AdvocateName:      draft.AdvocateName,
		CaseNumber:        draft.CaseNumber,
		CaseYear:          draft.CaseYear,
		CaseDetails:       draft.CaseDetails,
		DocumentsRequired: draft.DocumentsRequired,
		Status:            application.StatusSubmitted,
		DeadlineDate:      draft.DeadlineDate,
	}

	entry := audit.Entry{
		ApplicationID: app.ID,
		NewStatus:     application.StatusSubmitted,
		Remarks:       "application registered",
		ChangedBy:     actor,
		ChangedAt:     now,
	}

	err = s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Applications.Create(ctx, app); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeDuplicateIdentifier,
					fmt.Sprintf("g-number %s already assigned", gNumber))
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist application")
		}
		if err := s.stores.Audit.Append(ctx, &entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, entry)
	s.metrics.ObserveCreated()
	s.logger.Info("application created",
		"application_id", app.ID, "g_number", gNumber.String(), "actor", actor)

	created, err := s.stores.Applications.GetByID(ctx, app.ID)
	if err != nil {
		return app, nil
	}
	return created, nil
}

// TransitionInput carries the extra data some transitions need.
type TransitionInput struct {
	Compliant      *bool  // sent_to_court -> court_replied
	PagesEstimated int    // -> call_for_notice
	PagesCopied    int    // xerox_assigned -> ready
	ReceiptNumber  string // -> payment_received
}

// Transition moves an application to newStatus. The status update, the
// stage side effect and the audit entry commit as one unit.
func (s *Service) Transition(ctx context.Context, appID uuid.UUID, newStatus application.Status, actor, remarks string, input TransitionInput) (*application.Application, error) {
	var updated *application.Application

	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		app, err := s.stores.Applications.GetByID(ctx, appID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "application not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "load application")
		}

		if !application.CanTransition(app.Status, newStatus) {
			s.metrics.ObserveRejection()
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"cannot move from %s to %s", app.Status, newStatus)
		}

		now := s.clock()
		oldStatus := app.Status

		if err := s.applySideEffect(ctx, app, newStatus, now, actor, input); err != nil {
			return err
		}

		app.Status = newStatus
		if newStatus == application.StatusStruckOff {
			struckAt := now
			app.StrikeOffDate = &struckAt
		}
		if err := s.stores.Applications.Update(ctx, app); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist status change")
		}

		entry := audit.Entry{
			ApplicationID: app.ID,
			OldStatus:     &oldStatus,
			NewStatus:     newStatus,
			Remarks:       remarks,
			ChangedBy:     actor,
			ChangedAt:     now,
		}
		if err := s.stores.Audit.Append(ctx, &entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record audit entry")
		}

		updated = app
		s.publisher.Publish(ctx, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(newStatus))
	s.logger.Info("application transitioned",
		"application_id", appID, "to", newStatus, "actor", actor)
	return updated, nil
}

// applySideEffect opens or closes the stage record the target status
// implies. Runs inside the transition transaction.
func (s *Service) applySideEffect(ctx context.Context, app *application.Application, newStatus application.Status, now time.Time, actor string, input TransitionInput) error {
	switch newStatus {
	case application.StatusARegister:
		rec := &stage.ARegister{ApplicationID: app.ID, ReceivedDate: now}
		if err := s.stores.Stages.CreateARegister(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "open a-register entry")
		}

	case application.StatusSentToCourt:
		aReg, err := s.stores.Stages.ARegisterByApplication(ctx, app.ID)
		if err != nil {
			return s.missingStage(err, "a-register entry")
		}
		returned := now
		aReg.ReturnedDate = &returned
		aReg.ProcessingDays = stage.ProcessingDays(aReg.ReceivedDate, &returned)
		if err := s.stores.Stages.CloseARegister(ctx, aReg); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "close a-register entry")
		}
		bReg := &stage.BRegister{ApplicationID: app.ID, SentToCourtDate: now}
		if err := s.stores.Stages.CreateBRegister(ctx, bReg); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "open b-register entry")
		}

	case application.StatusCourtReplied:
		bReg, err := s.stores.Stages.BRegisterByApplication(ctx, app.ID)
		if err != nil {
			return s.missingStage(err, "b-register entry")
		}
		returned := now
		bReg.ReturnedDate = &returned
		bReg.ProcessingDays = stage.ProcessingDays(bReg.SentToCourtDate, &returned)
		bReg.Compliant = input.Compliant
		if err := s.stores.Stages.CloseBRegister(ctx, bReg); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "close b-register entry")
		}

	case application.StatusCallForNotice:
		if input.PagesEstimated <= 0 {
			return dErrors.New(dErrors.CodeBadRequest, "pages estimated must be positive")
		}
		notice := &stage.CallForNotice{
			ApplicationID:  app.ID,
			NoticeDate:     now,
			GracePeriodEnd: now.AddDate(0, 0, s.policy.GraceDays),
			PagesEstimated: input.PagesEstimated,
			FeeCalculated:  stage.Fee(input.PagesEstimated, s.policy.PerPageRate),
		}
		if err := s.stores.Stages.CreateCallForNotice(ctx, notice); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "open call-for-notice entry")
		}

	case application.StatusPaymentReceived:
		notice, err := s.stores.Stages.CallForNoticeByApplication(ctx, app.ID)
		if err != nil {
			return s.missingStage(err, "call-for-notice entry")
		}
		payment := &stage.Payment{
			ApplicationID: app.ID,
			PaidDate:      now,
			Amount:        notice.FeeCalculated + app.BaseFee,
			ReceiptNumber: input.ReceiptNumber,
			ReceivedBy:    actor,
		}
		if err := s.stores.Stages.CreatePayment(ctx, payment); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record payment")
		}

	case application.StatusXeroxAssigned:
		if _, err := s.stores.Stages.PaymentByApplication(ctx, app.ID); err != nil {
			return s.missingStage(err, "payment")
		}
		job := &stage.XeroxOperation{ApplicationID: app.ID, AssignedDate: now}
		if err := s.stores.Stages.CreateXerox(ctx, job); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "open xerox operation")
		}

	case application.StatusReady:
		job, err := s.stores.Stages.XeroxByApplication(ctx, app.ID)
		if err != nil {
			return s.missingStage(err, "xerox operation")
		}
		if input.PagesCopied <= 0 {
			return dErrors.New(dErrors.CodeBadRequest, "pages copied must be positive")
		}
		completed := now
		pages := input.PagesCopied
		job.CompletedDate = &completed
		job.PagesCopied = &pages
		job.ProcessingDays = stage.ProcessingDays(job.AssignedDate, &completed)
		if err := s.stores.Stages.CloseXerox(ctx, job); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "close xerox operation")
		}

	case application.StatusStruckOff:
		notice, err := s.stores.Stages.CallForNoticeByApplication(ctx, app.ID)
		if err != nil {
			return s.missingStage(err, "call-for-notice entry")
		}
		struckAt := now
		notice.IsStruckOff = true
		notice.StruckOffDate = &struckAt
		if err := s.stores.Stages.UpdateCallForNotice(ctx, notice); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "mark notice struck off")
		}
		s.metrics.ObserveStrikeOff()

	case application.StatusDelivered:
		// hand-over only, no stage record
	}
	return nil
}

func (s *Service) missingStage(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeMissingPrerequisite, "no %s on file", what)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "load "+what)
}

// Get returns one application by ID.
func (s *Service) Get(ctx context.Context, appID uuid.UUID) (*application.Application, error) {
	app, err := s.stores.Applications.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load application")
	}
	return app, nil
}

// FindByGNumber returns the application a G-Number was issued to.
func (s *Service) FindByGNumber(ctx context.Context, gNumber sequence.GNumber) (*application.Application, error) {
	app, err := s.stores.Applications.FindByGNumber(ctx, gNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no application holds that g-number")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up g-number")
	}
	return app, nil
}

// ListByStatus returns applications currently in the given status.
func (s *Service) ListByStatus(ctx context.Context, status application.Status) ([]*application.Application, error) {
	apps, err := s.stores.Applications.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list applications")
	}
	return apps, nil
}

// AuditTrail returns the ordered status history of an application.
func (s *Service) AuditTrail(ctx context.Context, appID uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, appID); err != nil {
		return nil, err
	}
	trail, err := s.stores.Audit.ListByApplication(ctx, appID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load audit trail")
	}
	return trail, nil
}

// ExpireOverdueNotices strikes off every call_for_notice application whose
// grace period ended before now without a payment. Returns how many were
// struck off. Individual failures are logged and skipped so one bad row
// does not stall the sweep.
func (s *Service) ExpireOverdueNotices(ctx context.Context, now time.Time) (int, error) {
	notices, err := s.stores.Stages.ListOpenNotices(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "list open notices")
	}

	struck := 0
	for _, notice := range notices {
		if !notice.GracePeriodEnd.Before(now) {
			continue
		}
		app, err := s.stores.Applications.GetByID(ctx, notice.ApplicationID)
		if err != nil || app.Status != application.StatusCallForNotice {
			continue
		}
		remarks := fmt.Sprintf("grace period ended %s without payment",
			notice.GracePeriodEnd.Format("2006-01-02"))
		if _, err := s.Transition(ctx, notice.ApplicationID, application.StatusStruckOff,
			"system", remarks, TransitionInput{}); err != nil {
			s.logger.Error("strike off failed",
				"application_id", notice.ApplicationID, "error", err)
			continue
		}
		struck++
	}
	if struck > 0 {
		s.logger.Info("overdue notices struck off", "count", struck)
	}
	return struck, nil
}
