package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"ASTROTRACKER_BACK-END/internal/utils"
)

const defaultStackSize = 4 << 10

// Recovery turns a panic into a 500 JSON response and logs it with the stack.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}

				err, ok := rv.(error)
				if !ok {
					err = fmt.Errorf("%v", rv)
				}

				stack := make([]byte, defaultStackSize)
				stack = stack[:runtime.Stack(stack, false)]

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.String("error", err.Error()),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("stack", string(stack)),
				)

				utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "An internal error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
