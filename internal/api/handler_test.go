package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"mailloop/internal/models"
)

type fakeJobStore struct {
	nextID     int64
	jobs       map[int64]models.EmailJob
	enqueueErr error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[int64]models.EmailJob)}
}

func (f *fakeJobStore) Enqueue(ctx context.Context, job *models.EmailJob) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.nextID++
	job.ID = f.nextID
	job.CreatedAt = time.Now().UTC()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobStore) GetByID(ctx context.Context, id int64) (models.EmailJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return models.EmailJob{}, models.ErrNotFound
	}
	return j, nil
}

func newHandler(store JobStore) *Handler {
	return &Handler{Store: store, Log: zap.NewNop()}
}

func TestSendEmail_Accepted(t *testing.T) {
	store := newFakeJobStore()
	h := newHandler(store)

	body := `{"to":"a@example.com","subject":"Welcome","text_body":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendEmail(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var resp map[string]int64
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] != 1 {
		t.Fatalf("id=%d, want 1", resp["id"])
	}

	job := store.jobs[1]
	if job.Status != models.StatusPending {
		t.Fatalf("status=%s, want pending", job.Status)
	}
	if job.Attempts != 0 {
		t.Fatalf("attempts=%d, want 0", job.Attempts)
	}
}

func TestSendEmail_InvalidRecipient(t *testing.T) {
	h := newHandler(newFakeJobStore())

	body := `{"to":"not-an-address","subject":"s","text_body":"b"}`
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendEmail(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSendEmail_MissingBody(t *testing.T) {
	h := newHandler(newFakeJobStore())

	body := `{"to":"a@example.com","subject":"s"}`
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendEmail(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSendEmail_MethodNotAllowed(t *testing.T) {
	h := newHandler(newFakeJobStore())

	req := httptest.NewRequest(http.MethodGet, "/send", nil)
	w := httptest.NewRecorder()

	h.SendEmail(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSendEmail_StoreError(t *testing.T) {
	store := newFakeJobStore()
	store.enqueueErr = errors.New("db down")
	h := newHandler(store)

	body := `{"to":"a@example.com","subject":"s","text_body":"b"}`
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendEmail(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSendPasswordReset_Accepted(t *testing.T) {
	store := newFakeJobStore()
	h := newHandler(store)

	body := `{"to":"user@example.com","url":"https://app.example.com/reset?token=abc"}`
	req := httptest.NewRequest(http.MethodPost, "/send/password-reset", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendPasswordReset(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	job := store.jobs[1]
	if !strings.Contains(job.TextBody, "https://app.example.com/reset?token=abc") {
		t.Fatalf("text body missing reset link: %q", job.TextBody)
	}
	if job.Subject != "Reset your password" {
		t.Fatalf("subject=%q", job.Subject)
	}
}

func TestSendVerification_MissingURL(t *testing.T) {
	h := newHandler(newFakeJobStore())

	body := `{"to":"user@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/send/verification", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendVerification(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSendBulk_Accepted(t *testing.T) {
	store := newFakeJobStore()
	h := newHandler(store)

	payload := map[string]string{
		"subject":       "Weekly digest",
		"text_template": "Hi {{.Name}}!",
		"csv":           "Email,Name\na@example.com,Ann\nb@example.com,Ben\n",
	}
	raw, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/send/bulk", strings.NewReader(string(raw)))
	w := httptest.NewRecorder()

	h.SendBulk(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Enqueued int     `json:"enqueued"`
		IDs      []int64 `json:"ids"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Enqueued != 2 || len(resp.IDs) != 2 {
		t.Fatalf("enqueued=%d ids=%v", resp.Enqueued, resp.IDs)
	}
	if store.jobs[1].TextBody != "Hi Ann!" {
		t.Fatalf("rendered body=%q", store.jobs[1].TextBody)
	}
}

func TestSendBulk_MissingEmailColumn(t *testing.T) {
	h := newHandler(newFakeJobStore())

	body := `{"subject":"s","text_template":"hi","csv":"Name\nAnn\n"}`
	req := httptest.NewRequest(http.MethodPost, "/send/bulk", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendBulk(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSendBulk_NoTemplate(t *testing.T) {
	h := newHandler(newFakeJobStore())

	body := `{"subject":"s","csv":"Email\na@example.com\n"}`
	req := httptest.NewRequest(http.MethodPost, "/send/bulk", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SendBulk(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetJob_Found(t *testing.T) {
	store := newFakeJobStore()
	h := newHandler(store)

	job := models.EmailJob{To: "a@example.com", Subject: "s", TextBody: "b", Status: models.StatusPending}
	if err := store.Enqueue(context.Background(), &job); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
	w := httptest.NewRecorder()

	h.GetJob(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var got models.EmailJob
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != 1 || got.To != "a@example.com" {
		t.Fatalf("got=%+v", got)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	h := newHandler(newFakeJobStore())

	req := httptest.NewRequest(http.MethodGet, "/jobs/99", nil)
	w := httptest.NewRecorder()

	h.GetJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetJob_BadID(t *testing.T) {
	h := newHandler(newFakeJobStore())

	req := httptest.NewRequest(http.MethodGet, "/jobs/not-a-number", nil)
	w := httptest.NewRecorder()

	h.GetJob(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	HealthzHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestReadyz_OK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	ReadyzHandler(fakePinger{}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	ReadyzHandler(fakePinger{err: errors.New("db down")}).ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}
