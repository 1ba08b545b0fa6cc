package util

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// WithRecover turns a handler panic into a 500 JSON reply. When the handler
// had already started its response, the panic is only logged.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := NewStatusRecorder(w)
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(p)
			}
			LoggerFromContext(r.Context()).Error("handler panic",
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
				"response_started", rec.Status != 0,
			)
			if rec.Status != 0 {
				return
			}
			WriteError(rec, http.StatusInternalServerError, "Internal Server Error", "SYSTEM_INTERNAL_ERROR", "")
		}()
		next.ServeHTTP(rec, r)
	})
}
