package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"copydesk/internal/application"
	"copydesk/internal/audit"
	"copydesk/internal/sequence"
	"copydesk/internal/stage"
	dErrors "copydesk/pkg/domain-errors"
)

type WorkflowSuite struct {
	suite.Suite
	svc       *Service
	apps      *application.InMemoryStore
	stages    *stage.InMemoryStore
	trail     *audit.InMemoryStore
	allocator *sequence.InMemoryAllocator
	ctx       context.Context
	now       time.Time
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.now = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.apps = application.NewInMemoryStore().WithClock(clock)
	s.stages = stage.NewInMemoryStore().WithClock(clock)
	s.trail = audit.NewInMemoryStore()
	s.allocator = sequence.NewInMemory()
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(
		Stores{Applications: s.apps, Stages: s.stages, Audit: s.trail},
		s.allocator,
		NewMemoryTxRunner(),
		Policy{GraceDays: 30, PerPageRate: 2.50, BaseFee: 50.00},
		WithLogger(logger),
		WithClock(clock),
	)
}

func (s *WorkflowSuite) draft() Draft {
	return Draft{
		Type:          application.TypeCopy,
		CaseType:      application.CaseCivil,
		Priority:      application.PriorityNormal,
		ApplicantName: "R. Deshmukh",
		CaseNumber:    "CS 412/2023",
		CaseYear:      2023,
	}
}

func (s *WorkflowSuite) create() *application.Application {
	app, err := s.svc.Create(s.ctx, s.draft(), "clerk1")
	s.Require().NoError(err)
	return app
}

func (s *WorkflowSuite) advance(app *application.Application, to application.Status, input TransitionInput) *application.Application {
	updated, err := s.svc.Transition(s.ctx, app.ID, to, "clerk1", "", input)
	s.Require().NoError(err, "transition to %s", to)
	return updated
}

func (s *WorkflowSuite) TestCreateAssignsSequentialGNumbers() {
	first := s.create()
	second := s.create()

	s.Equal("2024/0001", first.GNumber.String())
	s.Equal("2024/0002", second.GNumber.String())
	s.Equal(application.StatusSubmitted, first.Status)
	s.Equal(50.00, first.BaseFee)
}

func (s *WorkflowSuite) TestCreateWritesInitialAuditEntry() {
	app := s.create()

	trail, err := s.svc.AuditTrail(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.Nil(trail[0].OldStatus)
	s.Equal(application.StatusSubmitted, trail[0].NewStatus)
	s.Equal("clerk1", trail[0].ChangedBy)
}

func (s *WorkflowSuite) TestCreateRejectsIncompleteDraft() {
	bad := s.draft()
	bad.ApplicantName = ""
	_, err := s.svc.Create(s.ctx, bad, "clerk1")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *WorkflowSuite) TestFullLifecycleToDelivery() {
	app := s.create()
	compliant := true

	app = s.advance(app, application.StatusARegister, TransitionInput{})

	s.now = s.now.Add(5 * 24 * time.Hour)
	app = s.advance(app, application.StatusSentToCourt, TransitionInput{})

	s.now = s.now.Add(2 * 24 * time.Hour)
	app = s.advance(app, application.StatusCourtReplied, TransitionInput{Compliant: &compliant})
	app = s.advance(app, application.StatusSuperintendentReceived, TransitionInput{})
	app = s.advance(app, application.StatusCallForNotice, TransitionInput{PagesEstimated: 10})

	s.now = s.now.Add(3 * 24 * time.Hour)
	app = s.advance(app, application.StatusPaymentReceived, TransitionInput{ReceiptNumber: "R-1001"})
	app = s.advance(app, application.StatusXeroxAssigned, TransitionInput{})

	s.now = s.now.Add(24 * time.Hour)
	app = s.advance(app, application.StatusReady, TransitionInput{PagesCopied: 10})
	app = s.advance(app, application.StatusDelivered, TransitionInput{})

	s.Equal(application.StatusDelivered, app.Status)

	trail, err := s.svc.AuditTrail(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Len(trail, 10)
	s.NoError(audit.VerifyChain(trail))
}

func (s *WorkflowSuite) TestARegisterProcessingDays() {
	app := s.create()
	s.advance(app, application.StatusARegister, TransitionInput{})

	s.now = s.now.Add(5 * 24 * time.Hour)
	s.advance(app, application.StatusSentToCourt, TransitionInput{})

	aReg, err := s.stages.ARegisterByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Require().NotNil(aReg.ProcessingDays)
	s.Equal(5, *aReg.ProcessingDays)

	// the court round trip opened alongside the close
	bReg, err := s.stages.BRegisterByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(s.now, bReg.SentToCourtDate)
	s.Nil(bReg.ProcessingDays)
}

func (s *WorkflowSuite) TestComplianceVerdictRecorded() {
	app := s.create()
	s.advance(app, application.StatusARegister, TransitionInput{})
	s.advance(app, application.StatusSentToCourt, TransitionInput{})

	compliant := false
	s.now = s.now.Add(48 * time.Hour)
	s.advance(app, application.StatusCourtReplied, TransitionInput{Compliant: &compliant})

	bReg, err := s.stages.BRegisterByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Require().NotNil(bReg.Compliant)
	s.False(*bReg.Compliant)
	s.Require().NotNil(bReg.ProcessingDays)
	s.Equal(2, *bReg.ProcessingDays)
}

func (s *WorkflowSuite) TestNoticeFeeAndGracePeriod() {
	app := s.toCallForNotice()

	notice, err := s.stages.CallForNoticeByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(25.00, notice.FeeCalculated, "10 pages at 2.50")
	s.Equal(s.now.AddDate(0, 0, 30), notice.GracePeriodEnd)
	s.False(notice.IsStruckOff)
}

func (s *WorkflowSuite) TestPaymentIncludesBaseFee() {
	app := s.toCallForNotice()
	s.advance(app, application.StatusPaymentReceived, TransitionInput{ReceiptNumber: "R-7"})

	payment, err := s.stages.PaymentByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(75.00, payment.Amount, "copy fee 25.00 plus base fee 50.00")
	s.Equal("R-7", payment.ReceiptNumber)
	s.Equal("clerk1", payment.ReceivedBy)
}

func (s *WorkflowSuite) TestSkippingStagesRejected() {
	app := s.create()

	_, err := s.svc.Transition(s.ctx, app.ID, application.StatusSentToCourt, "clerk1", "", TransitionInput{})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))

	// status unchanged, no stray audit entry
	current, getErr := s.svc.Get(s.ctx, app.ID)
	s.Require().NoError(getErr)
	s.Equal(application.StatusSubmitted, current.Status)

	trail, trailErr := s.svc.AuditTrail(s.ctx, app.ID)
	s.Require().NoError(trailErr)
	s.Len(trail, 1)
}

func (s *WorkflowSuite) TestTerminalStatesRejectTransitions() {
	app := s.toCallForNotice()
	s.advance(app, application.StatusStruckOff, TransitionInput{})

	_, err := s.svc.Transition(s.ctx, app.ID, application.StatusPaymentReceived, "clerk1", "", TransitionInput{})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))
}

func (s *WorkflowSuite) TestXeroxRequiresPayment() {
	// force an application into call_for_notice then try to jump the
	// payment prerequisite by mutating status directly in the store
	app := s.toCallForNotice()
	app.Status = application.StatusPaymentReceived
	s.Require().NoError(s.apps.Update(s.ctx, app))

	_, err := s.svc.Transition(s.ctx, app.ID, application.StatusXeroxAssigned, "clerk1", "", TransitionInput{})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeMissingPrerequisite))
}

func (s *WorkflowSuite) TestStrikeOffMarksApplicationAndNotice() {
	app := s.toCallForNotice()
	s.now = s.now.Add(31 * 24 * time.Hour)

	updated := s.advance(app, application.StatusStruckOff, TransitionInput{})
	s.Require().NotNil(updated.StrikeOffDate)
	s.Equal(s.now, *updated.StrikeOffDate)

	notice, err := s.stages.CallForNoticeByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.True(notice.IsStruckOff)
	s.Require().NotNil(notice.StruckOffDate)
}

func (s *WorkflowSuite) TestExpireOverdueNotices() {
	overdue := s.toCallForNotice()
	paid := s.toCallForNotice()
	s.advance(paid, application.StatusPaymentReceived, TransitionInput{ReceiptNumber: "R-2"})

	sweepAt := s.now.AddDate(0, 0, 31)

	struck, err := s.svc.ExpireOverdueNotices(s.ctx, sweepAt)
	s.Require().NoError(err)
	s.Equal(1, struck)

	got, err := s.svc.Get(s.ctx, overdue.ID)
	s.Require().NoError(err)
	s.Equal(application.StatusStruckOff, got.Status)

	gotPaid, err := s.svc.Get(s.ctx, paid.ID)
	s.Require().NoError(err)
	s.Equal(application.StatusPaymentReceived, gotPaid.Status, "paid applications never swept")

	trail, err := s.svc.AuditTrail(s.ctx, overdue.ID)
	s.Require().NoError(err)
	s.Equal("system", trail[len(trail)-1].ChangedBy)
}

func (s *WorkflowSuite) TestExpireSkipsNoticesStillInGrace() {
	app := s.toCallForNotice()

	struck, err := s.svc.ExpireOverdueNotices(s.ctx, s.now.AddDate(0, 0, 29))
	s.Require().NoError(err)
	s.Zero(struck)

	got, err := s.svc.Get(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(application.StatusCallForNotice, got.Status)
}

func (s *WorkflowSuite) TestFindByGNumber() {
	app := s.create()

	found, err := s.svc.FindByGNumber(s.ctx, app.GNumber)
	s.Require().NoError(err)
	s.Equal(app.ID, found.ID)

	_, err = s.svc.FindByGNumber(s.ctx, sequence.GNumber{Year: 1999, Sequence: 1})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestTransitionUnknownApplication() {
	_, err := s.svc.Transition(s.ctx, uuid.New(), application.StatusARegister, "clerk1", "", TransitionInput{})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestCallForNoticeRequiresPageEstimate() {
	app := s.create()
	s.advance(app, application.StatusARegister, TransitionInput{})
	s.advance(app, application.StatusSentToCourt, TransitionInput{})
	compliant := true
	s.advance(app, application.StatusCourtReplied, TransitionInput{Compliant: &compliant})
	s.advance(app, application.StatusSuperintendentReceived, TransitionInput{})

	_, err := s.svc.Transition(s.ctx, app.ID, application.StatusCallForNotice, "clerk1", "", TransitionInput{})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

// toCallForNotice walks a fresh application up to call_for_notice with a
// 10-page estimate.
func (s *WorkflowSuite) toCallForNotice() *application.Application {
	app := s.create()
	compliant := true
	s.advance(app, application.StatusARegister, TransitionInput{})
	s.advance(app, application.StatusSentToCourt, TransitionInput{})
	s.advance(app, application.StatusCourtReplied, TransitionInput{Compliant: &compliant})
	s.advance(app, application.StatusSuperintendentReceived, TransitionInput{})
	return s.advance(app, application.StatusCallForNotice, TransitionInput{PagesEstimated: 10})
}
