package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/SwetabhSingh17/APMS-sub001/pkg/utils"
)

type panicResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Recovery turns a handler panic into the JSON 500 envelope. Aborted handlers re-panic so net/http can drop the connection.
func Recovery(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger := log
				if reqLog := zerolog.Ctx(r.Context()); reqLog.GetLevel() != zerolog.Disabled {
					logger = *reqLog
				}
				logger.Error().
					Interface("panic", rvr).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("Panic recovered")

				_ = utils.WriteJSON(w, http.StatusInternalServerError, panicResponse{
					Error:   http.StatusText(http.StatusInternalServerError),
					Kind:    "internal",
					Message: "internal server error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
