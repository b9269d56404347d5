package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

// RecoverMiddleware turns a handler panic into a logged 500 with the usual
// error envelope.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				utils.Logger.
					WithField("path", r.URL.Path).
					WithField("stack", string(debug.Stack())).
					Errorf("Handler panic recovered: %v", rec)
				utils.RespondErrorWithCode(
					w,
					http.StatusInternalServerError,
					utils.ErrCodeInternal,
					"An unexpected error occurred",
					nil,
					fmt.Errorf("panic: %v", rec),
				)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
