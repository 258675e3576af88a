package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"attendance-bot/internal/api/handler"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
)

// NewRouter маршруты JSON API. Пользователь передается заголовком X-User-ID,
// аутентификацию выполняет прокси перед сервисом.
func NewRouter(service handler.CorrectionService, log *logrus.Logger) *mux.Router {
	h := handler.CorrectionHandler{
		Service: service,
		Logger:  log,
	}

	r := mux.NewRouter()
	r.Use(requestID(log))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	// проверка не требует пользователя
	api.HandleFunc("/corrections/validate", h.Validate).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(identity)

	authed.HandleFunc("/attendances/{id:[0-9]+}/edit-buffer", h.EditBuffer).Methods(http.MethodGet)
	authed.HandleFunc("/attendances/{id:[0-9]+}/corrections", h.Submit).Methods(http.MethodPost)
	authed.HandleFunc("/attendances/{id:[0-9]+}/corrections", h.History).Methods(http.MethodGet)
	authed.HandleFunc("/corrections/pending", h.ListPending).Methods(http.MethodGet)
	authed.HandleFunc("/corrections/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	authed.HandleFunc("/corrections/{id:[0-9]+}/approve", h.Approve).Methods(http.MethodPost)

	return r
}

// requestID присваивает запросу ID и пишет строку в лог после ответа
func requestID(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(headerRequestID, id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			log.WithFields(logrus.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(start).String(),
			}).Info("HTTP request")
		})
	}
}

// identity читает X-User-ID. Без заголовка обработчики ответят 401.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(headerUserID); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				r = r.WithContext(handler.WithActor(r.Context(), uint(id)))
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
