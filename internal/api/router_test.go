package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"attendance-bot/internal/api/handler"
	"attendance-bot/internal/correction"
	"attendance-bot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type stubService struct {
	actor uint
}

func (s *stubService) Check(correction.EditBuffer) correction.IssueList { return nil }

func (s *stubService) EditBuffer(_ context.Context, actorID, _ uint) (correction.EditBuffer, error) {
	s.actor = actorID
	return correction.EditBuffer{RequestedStart: "09:00"}, nil
}

func (s *stubService) SubmitBuffer(context.Context, uint, uint, correction.EditBuffer) (*models.Correction, error) {
	return &models.Correction{}, nil
}

func (s *stubService) Approve(context.Context, uint, uint) (*models.Correction, error) {
	return &models.Correction{}, nil
}

func (s *stubService) Get(context.Context, uint, uint) (*models.Correction, error) {
	return &models.Correction{}, nil
}

func (s *stubService) ListPending(context.Context, uint, int) ([]*models.Correction, error) {
	return nil, nil
}

func (s *stubService) History(context.Context, uint, uint) ([]*models.Correction, error) {
	return nil, nil
}

var _ handler.CorrectionService = (*stubService)(nil)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func TestRouter_Health(t *testing.T) {
	r := NewRouter(&stubService{}, quietLogger())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, err := uuid.Parse(rec.Header().Get(headerRequestID)); err != nil {
		t.Errorf("expected generated request id, got %q", rec.Header().Get(headerRequestID))
	}
}

func TestRouter_KeepsRequestID(t *testing.T) {
	r := NewRouter(&stubService{}, quietLogger())
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(headerRequestID, id)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(headerRequestID); got != id {
		t.Errorf("expected %s, got %s", id, got)
	}
}

func TestRouter_Identity(t *testing.T) {
	svc := &stubService{}
	r := NewRouter(svc, quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendances/10/edit-buffer", nil)
	req.Header.Set(headerUserID, "7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || svc.actor != 7 {
		t.Errorf("expected 200 for user 7, got %d for %d", rec.Code, svc.actor)
	}

	for _, header := range []string{"", "abc", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/attendances/10/edit-buffer", nil)
		if header != "" {
			req.Header.Set(headerUserID, header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestRouter_Routes(t *testing.T) {
	r := NewRouter(&stubService{}, quietLogger())

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/api/v1/corrections/validate", http.StatusOK},
		{http.MethodGet, "/api/v1/corrections/pending", http.StatusOK},
		{http.MethodGet, "/api/v1/corrections/5", http.StatusOK},
		{http.MethodPost, "/api/v1/corrections/5/approve", http.StatusOK},
		{http.MethodGet, "/api/v1/attendances/10/corrections", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString("{}"))
		req.Header.Set(headerUserID, "1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, rec.Code)
		}
	}
}
