// Package httptransport is the thin HTTP layer. Handlers decode, delegate
// to the workflow service and encode; business rules stay out of here.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"copydesk/internal/application"
	"copydesk/internal/audit"
	"copydesk/internal/sequence"
	"copydesk/internal/user"
	"copydesk/internal/workflow"
	dErrors "copydesk/pkg/domain-errors"
)

type Handler struct {
	workflow *workflow.Service
	users    *user.Service
	logger   *slog.Logger
}

func NewHandler(wf *workflow.Service, users *user.Service, logger *slog.Logger) *Handler {
	return &Handler{workflow: wf, users: users, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	token, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type createApplicationRequest struct {
	Type              string     `json:"type"`
	CaseType          string     `json:"case_type"`
	Priority          string     `json:"priority"`
	ApplicantName     string     `json:"applicant_name"`
	ApplicantAddress  string     `json:"applicant_address"`
	AdvocateName      string     `json:"advocate_name"`
	CaseNumber        string     `json:"case_number"`
	CaseYear          int        `json:"case_year"`
	CaseDetails       string     `json:"case_details"`
	DocumentsRequired string     `json:"documents_required"`
	DeadlineDate      *time.Time `json:"deadline_date,omitempty"`
}

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}

	appType, err := application.ParseType(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	caseType, err := application.ParseCaseType(req.CaseType)
	if err != nil {
		writeError(w, err)
		return
	}
	priority, err := application.ParsePriority(req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}

	draft := workflow.Draft{
		Type:              appType,
		CaseType:          caseType,
		Priority:          priority,
		ApplicantName:     req.ApplicantName,
		ApplicantAddress:  req.ApplicantAddress,
		AdvocateName:      req.AdvocateName,
		CaseNumber:        req.CaseNumber,
		CaseYear:          req.CaseYear,
		CaseDetails:       req.CaseDetails,
		DocumentsRequired: req.DocumentsRequired,
		DeadlineDate:      req.DeadlineDate,
	}
	created, err := h.workflow.Create(r.Context(), draft, identityFrom(r.Context()).Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationResponse(created))
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "malformed application id"))
		return
	}
	app, err := h.workflow.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	status, err := application.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	apps, err := h.workflow.ListByStatus(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": out})
}

func (h *Handler) handleFindByGNumber(w http.ResponseWriter, r *http.Request) {
	gNumber, err := sequence.Parse(r.URL.Query().Get("value"))
	if err != nil {
		writeError(w, err)
		return
	}
	app, err := h.workflow.FindByGNumber(r.Context(), gNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

type transitionRequest struct {
	NewStatus      string `json:"new_status"`
	Remarks        string `json:"remarks"`
	Compliant      *bool  `json:"compliant,omitempty"`
	PagesEstimated int    `json:"pages_estimated,omitempty"`
	PagesCopied    int    `json:"pages_copied,omitempty"`
	ReceiptNumber  string `json:"receipt_number,omitempty"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "malformed application id"))
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	newStatus, err := application.ParseStatus(req.NewStatus)
	if err != nil {
		writeError(w, err)
		return
	}

	input := workflow.TransitionInput{
		Compliant:      req.Compliant,
		PagesEstimated: req.PagesEstimated,
		PagesCopied:    req.PagesCopied,
		ReceiptNumber:  req.ReceiptNumber,
	}
	updated, err := h.workflow.Transition(r.Context(), id, newStatus,
		identityFrom(r.Context()).Username, req.Remarks, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(updated))
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "malformed application id"))
		return
	}
	trail, err := h.workflow.AuditTrail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]auditEntryResponse, 0, len(trail))
	for _, entry := range trail {
		out = append(out, toAuditEntryResponse(entry))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

type applicationResponse struct {
	ID                string     `json:"id"`
	GNumber           string     `json:"g_number"`
	Type              string     `json:"type"`
	CaseType          string     `json:"case_type"`
	Priority          string     `json:"priority"`
	BaseFee           float64    `json:"base_fee"`
	ApplicantName     string     `json:"applicant_name"`
	ApplicantAddress  string     `json:"applicant_address,omitempty"`
	AdvocateName      string     `json:"advocate_name,omitempty"`
	CaseNumber        string     `json:"case_number"`
	CaseYear          int        `json:"case_year"`
	CaseDetails       string     `json:"case_details,omitempty"`
	DocumentsRequired string     `json:"documents_required,omitempty"`
	Status            string     `json:"status"`
	DeadlineDate      *time.Time `json:"deadline_date,omitempty"`
	StrikeOffDate     *time.Time `json:"strike_off_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toApplicationResponse(app *application.Application) applicationResponse {
	return applicationResponse{
		ID:                app.ID.String(),
		GNumber:           app.GNumber.String(),
		Type:              string(app.Type),
		CaseType:          string(app.CaseType),
		Priority:          string(app.Priority),
		BaseFee:           app.BaseFee,
		ApplicantName:     app.ApplicantName,
		ApplicantAddress:  app.ApplicantAddress,
		AdvocateName:      app.AdvocateName,
		CaseNumber:        app.CaseNumber,
		CaseYear:          app.CaseYear,
		CaseDetails:       app.CaseDetails,
		DocumentsRequired: app.DocumentsRequired,
		Status:            string(app.Status),
		DeadlineDate:      app.DeadlineDate,
		StrikeOffDate:     app.StrikeOffDate,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
}

type auditEntryResponse struct {
	ID        string    `json:"id"`
	OldStatus *string   `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Remarks   string    `json:"remarks,omitempty"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

func toAuditEntryResponse(entry audit.Entry) auditEntryResponse {
	resp := auditEntryResponse{
		ID:        entry.ID.String(),
		NewStatus: string(entry.NewStatus),
		Remarks:   entry.Remarks,
		ChangedBy: entry.ChangedBy,
		ChangedAt: entry.ChangedAt,
	}
	if entry.OldStatus != nil {
		v := string(*entry.OldStatus)
		resp.OldStatus = &v
	}
	return resp
}
