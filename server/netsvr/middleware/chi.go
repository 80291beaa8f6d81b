package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/server/httperr"
)

// RequestID 沿用 chi 的實作：有 X-Request-Id 就用，沒有就產生。
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(next)
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}

// Recover 攔下 handler 的 panic，記錄 stack 並回 JSON 500。
// http.ErrAbortHandler 照 net/http 的慣例往上丟。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				if log != nil {
					log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
						slog.String("req_id", GetReqId(r)),
						slog.String("stack", string(debug.Stack())),
					)
				}
				if r.Header.Get("Connection") != "Upgrade" {
					httperr.Write(w, http.StatusInternalServerError, errs.Fatalf("internal error (req_id=%s)", GetReqId(r)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
