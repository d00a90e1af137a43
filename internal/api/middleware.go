package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/middleware"
	customerror "github.com/ukane-philemon/grades/internal/errors"
	"github.com/ukane-philemon/grades/internal/logger"
	"github.com/ukane-philemon/grades/internal/metrics"
)

// recoverer turns a panic in any later handler into a plain text 500
// response.
func recoverer(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				log.Error("unhandled panic",
					"panic", rvr,
					"method", req.Method,
					"path", req.URL.Path,
					"request_id", middleware.GetReqID(req.Context()),
					"stack", string(debug.Stack()),
				)

				unhandled := &customerror.ErrorUnhandled{}
				http.Error(res, unhandled.Error(), unhandled.StatusCode())
			}()

			next.ServeHTTP(res, req)
		})
	}
}

// requestLogger logs one line per request, at error level for 5xx responses
// and warn level for 4xx responses.
func requestLogger(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(res, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []interface{}{
				"method", req.Method,
				"path", req.URL.Path,
				"route", metrics.RoutePattern(req),
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if reqID := middleware.GetReqID(req.Context()); reqID != "" {
				fields = append(fields, "request_id", reqID)
			}

			switch {
			case status >= 500:
				log.Error("HTTP request", fields...)
			case status >= 400:
				log.Warn("HTTP request", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		})
	}
}
