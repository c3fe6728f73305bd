package httpapi

import (
	"errors"
	"net/http"

	"rentalhub/internal/service"

	"go.uber.org/zap"
)

// statusFor is the single mapping from workflow error kinds to HTTP status codes.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindPermission:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindDuplicate:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err as an envelope. Errors that are not *service.Error are
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if errors.Is(err, errBadBody) {
		writeJSON(w, http.StatusBadRequest, Fail("JSON parse error."))
		return
	}
	var se *service.Error
	if errors.As(err, &se) {
		status := statusFor(se.Kind)
		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		}
		writeJSON(w, status, FailWith(se))
		return
	}
	logger.Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, Fail("A server error occurred."))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, Fail(`Method "`+r.Method+`" not allowed.`))
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, Fail("Not found."))
}
