package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// GenericErrorMessage is the fallback shown when the server reports a
// failure without a usable message field.
const GenericErrorMessage = "An unexpected error occurred."

// Kind classifies a remote-call failure. Every non-2xx response passes
// through this classification exactly once, at the client boundary;
// callers branch on the kind, never on raw status codes.
type Kind int

const (
	// KindTransient covers server and network failures. Never retried
	// automatically.
	KindTransient Kind = iota

	// KindUnauthorized means the credential was rejected. The session
	// guard must be invoked on any error of this kind.
	KindUnauthorized

	// KindValidation means the server rejected the request payload
	// (bad credentials on login, duplicate username on signup, ...).
	KindValidation
)

// Error is a classified failure from the remote service.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// classify converts a non-2xx response into a typed Error. The body is
// parsed best-effort for a message field ({"error": ...} from the
// application, {"detail": ...} from the auth layer); anything else
// yields the generic fallback.
func classify(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Kind = KindUnauthorized
	case statusCode >= 400 && statusCode < 500:
		e.Kind = KindValidation
	default:
		e.Kind = KindTransient
	}

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			e.Message = payload.Error
		case payload.Detail != "":
			e.Message = payload.Detail
		}
	}
	return e
}

// IsUnauthorized reports whether err is a credential rejection.
func IsUnauthorized(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindUnauthorized
}

// UserMessage extracts the server-provided message from err, falling
// back to the generic string for transport failures and unparseable
// bodies. This is what auth forms display inline.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return GenericErrorMessage
}
