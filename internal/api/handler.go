package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mailloop/internal/csvparser"
	"mailloop/internal/email"
	"mailloop/internal/models"
)

const maxBulkRecipients = 1000

// JobStore is the slice of the queue store the API needs.
type JobStore interface {
	Enqueue(ctx context.Context, job *models.EmailJob) error
	GetByID(ctx context.Context, id int64) (models.EmailJob, error)
}

type Handler struct {
	Store JobStore
	Log   *zap.Logger
}

type sendRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
}

// SendEmail enqueues a raw message. The response is returned as soon
// as the job is persisted; delivery happens asynchronously.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job := models.EmailJob{
		To:       req.To,
		Subject:  req.Subject,
		TextBody: req.TextBody,
		HTMLBody: req.HTMLBody,
		Status:   models.StatusPending,
	}
	if err := job.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.enqueue(w, r, &job)
}

type linkRequest struct {
	To  string `json:"to"`
	URL string `json:"url"`
}

// SendPasswordReset composes and enqueues a password reset email.
func (h *Handler) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	h.sendLinked(w, r, email.ComposePasswordReset)
}

// SendVerification composes and enqueues an address verification email.
func (h *Handler) SendVerification(w http.ResponseWriter, r *http.Request) {
	h.sendLinked(w, r, email.ComposeVerification)
}

func (h *Handler) sendLinked(
	w http.ResponseWriter,
	r *http.Request,
	compose func(to, link string) (models.EmailJob, error),
) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	job, err := compose(req.To, req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.enqueue(w, r, &job)
}

type bulkRequest struct {
	Subject      string `json:"subject"`
	TextTemplate string `json:"text_template"`
	HTMLTemplate string `json:"html_template"`
	CSV          string `json:"csv"`
}

// SendBulk enqueues one job per CSV recipient row, rendering the body
// templates against each row's fields.
func (h *Handler) SendBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		writeError(w, http.StatusBadRequest, "subject is required")
		return
	}
	if req.TextTemplate == "" && req.HTMLTemplate == "" {
		writeError(w, http.StatusBadRequest, "a body template is required")
		return
	}

	recipients, err := csvparser.ParseRecipients(strings.NewReader(req.CSV), maxBulkRecipients)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids := make([]int64, 0, len(recipients))
	for _, rec := range recipients {
		text, html, err := email.RenderBodies(req.TextTemplate, req.HTMLTemplate, rec.Fields)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		job := models.EmailJob{
			To:       rec.Email,
			Subject:  req.Subject,
			TextBody: text,
			HTMLBody: html,
			Status:   models.StatusPending,
		}
		if err := job.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := h.Store.Enqueue(r.Context(), &job); err != nil {
			h.Log.Error("failed to enqueue bulk job", zap.String("to", job.To), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		ids = append(ids, job.ID)
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"enqueued": len(ids),
		"ids":      ids,
	})
}

// GetJob returns the current state of a job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	job, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.Log.Error("failed to load job", zap.Int64("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, job *models.EmailJob) {
	if err := h.Store.Enqueue(r.Context(), job); err != nil {
		h.Log.Error("failed to enqueue job", zap.String("to", job.To), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("job enqueued", zap.Int64("job_id", job.ID), zap.String("to", job.To))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id": job.ID,
	})
}
