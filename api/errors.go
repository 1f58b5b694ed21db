package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

var (
	// ErrNotFound matches any failure that means the record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized matches any failure that means the session token was
	// missing, expired or rejected.
	ErrUnauthorized = errors.New("not authenticated")
)

// TransportError means no response reached the console.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a response with a non-2xx status.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *HTTPError) Is(target error) bool { return matchCode(e.Status, target) }

// ApplicationError is an envelope whose code reports failure under HTTP 200.
type ApplicationError struct {
	Code    int
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

func (e *ApplicationError) Is(target error) bool { return matchCode(e.Code, target) }

// ValidationError is a field level rejection, raised locally before a
// request is sent or reported by the server.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func matchCode(code int, target error) bool {
	switch target {
	case ErrNotFound:
		return code == http.StatusNotFound
	case ErrUnauthorized:
		return code == http.StatusUnauthorized
	}
	return false
}

// IsNotFound reports whether err means the record is absent.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// gin's binding errors name the struct field, e.g.
// "Key: 'User.Phone' Error:Field validation for 'Phone' failed on the 'required' tag".
var bindingFieldRe = regexp.MustCompile(`Field validation for '(\w+)' failed on the '(\w+)' tag`)

// fieldError extracts a ValidationError from a server message, or nil.
func fieldError(message string) *ValidationError {
	m := bindingFieldRe.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	return &ValidationError{Field: snakeCase(m[1]), Reason: m[2]}
}

func snakeCase(s string) string {
	out := make([]byte, 0, len(s)+4)
	isUpper := func(c byte) bool { return c >= 'A' && c <= 'Z' }
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUpper(c) {
			// CardTypeID -> card_type_id
			if i > 0 && (!isUpper(s[i-1]) || (i+1 < len(s) && !isUpper(s[i+1]))) {
				out = append(out, '_')
			}
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
