package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const (
	teacherIDKey ctxKey = iota
	requestIDKey
)

// requestID берёт X-Request-ID клиента или генерирует новый
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// accessLog пишет каждый запрос в zap
func (a *API) accessLog(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
		fields := []zap.Field{
			zap.String("request_id", p.Request.Header.Get(requestIDHeader)),
			zap.String("method", p.Request.Method),
			zap.String("path", p.URL.Path),
			zap.Int("status", p.StatusCode),
			zap.Int("size", p.Size),
			zap.Duration("latency", time.Since(p.TimeStamp)),
		}

		switch {
		case p.StatusCode >= http.StatusInternalServerError:
			a.logger.Error("HTTP request", fields...)
		case p.StatusCode >= http.StatusBadRequest:
			a.logger.Warn("HTTP request", fields...)
		default:
			a.logger.Info("HTTP request", fields...)
		}
	})
}

// requireTeacher пропускает только запросы с валидным bearer-токеном учителя
func (a *API) requireTeacher(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			a.Response(w, http.StatusUnauthorized, Response{Message: "missing bearer token"})
			return
		}

		teacherID, err := a.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			a.logger.Debug("Rejected bearer token",
				zap.String("request_id", requestIDFrom(r.Context())),
				zap.Error(err),
			)
			a.Response(w, http.StatusUnauthorized, Response{Message: "invalid or expired token"})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), teacherIDKey, teacherID)))
	})
}

func teacherIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(teacherIDKey).(int64)
	return id
}
