package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"attendance-bot/internal/correction"
	"attendance-bot/internal/models"
	"attendance-bot/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// CorrectionService то, что HTTP-адаптер использует из service.CorrectionService
type CorrectionService interface {
	Check(buf correction.EditBuffer) correction.IssueList
	EditBuffer(ctx context.Context, actorID, attendanceID uint) (correction.EditBuffer, error)
	SubmitBuffer(ctx context.Context, actorID, attendanceID uint, buf correction.EditBuffer) (*models.Correction, error)
	Approve(ctx context.Context, reviewerID, correctionID uint) (*models.Correction, error)
	Get(ctx context.Context, actorID, correctionID uint) (*models.Correction, error)
	ListPending(ctx context.Context, actorID uint, limit int) ([]*models.Correction, error)
	History(ctx context.Context, actorID, attendanceID uint) ([]*models.Correction, error)
}

type CorrectionHandler struct {
	Service CorrectionService
	Logger  *logrus.Logger
}

type actorKey struct{}

// WithActor кладет ID пользователя в контекст запроса
func WithActor(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// Actor ID пользователя из контекста
func Actor(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(actorKey{}).(uint)
	return id, ok
}

type validateResponse struct {
	Valid  bool                 `json:"valid"`
	Issues correction.IssueList `json:"issues"`
	// Fields первое сообщение на каждое поле формы
	Fields map[string]string `json:"fields"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code,omitempty"`
	Issues correction.IssueList `json:"issues,omitempty"`
	Fields map[string]string    `json:"fields,omitempty"`
}

// Validate проверяет буфер без сохранения
func (h *CorrectionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var buf correction.EditBuffer
	if err := json.NewDecoder(r.Body).Decode(&buf); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	issues := h.Service.Check(buf)
	if issues == nil {
		issues = correction.IssueList{}
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: issues.Empty(), Issues: issues, Fields: issues.Map()})
}

func (h *CorrectionHandler) EditBuffer(w http.ResponseWriter, r *http.Request) {
	actor, attendanceID, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	buf, err := h.Service.EditBuffer(r.Context(), actor, attendanceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buf)
}

func (h *CorrectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, attendanceID, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var buf correction.EditBuffer
	if err := json.NewDecoder(r.Body).Decode(&buf); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	req, err := h.Service.SubmitBuffer(r.Context(), actor, attendanceID, buf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *CorrectionHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, attendanceID, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	list, err := h.Service.History(r.Context(), actor, attendanceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *CorrectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CorrectionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Approve(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CorrectionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "X-User-ID is required"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive number"})
			return
		}
		limit = n
	}

	list, err := h.Service.ListPending(r.Context(), actor, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *CorrectionHandler) actorAndID(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
	actor, ok := Actor(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "X-User-ID is required"})
		return 0, 0, false
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid id"})
		return 0, 0, false
	}
	return actor, uint(id), true
}

// writeError переводит ошибки сервиса в HTTP-статусы
func (h *CorrectionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *correction.ValidationError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: correction.ErrValidationFailed.Error(), Code: "validation_failed", Issues: ve.Issues, Fields: ve.Issues.Map()})
	case errors.Is(err, correction.ErrAlreadyPending):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "already_pending"})
	case errors.Is(err, correction.ErrNotEditable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "not_editable"})
	case errors.Is(err, correction.ErrNotApprovable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "not_approvable"})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error(), Code: "forbidden"})
	case errors.Is(err, service.ErrAttendanceNotFound),
		errors.Is(err, service.ErrCorrectionNotFound),
		errors.Is(err, service.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: correction.ErrOperationFailed.Error(), Code: "operation_failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func nonNil(list []*models.Correction) []*models.Correction {
	if list == nil {
		return []*models.Correction{}
	}
	return list
}
