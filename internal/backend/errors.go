package backend

import "errors"

// ErrorKind classifies a normalized backend failure.
type ErrorKind int

const (
	// KindNetwork is a transport failure; no response was received.
	KindNetwork ErrorKind = iota
	// KindAuth is a rejected or missing credential (401/403).
	KindAuth
	// KindNotFound is a missing entity (404).
	KindNotFound
	// KindValidation is a request the backend refused as malformed (400/422).
	KindValidation
	// KindServer is any other backend failure.
	KindServer
)

// APIError is the single error shape the client surfaces to page code. Raw
// transport errors never escape this package.
type APIError struct {
	Kind    ErrorKind
	Status  int // 0 when no response was received
	Message string
	Details map[string]interface{} // backend's structured payload, when present
}

func (e *APIError) Error() string {
	return e.Message
}

// AsAPIError unwraps err into the client's normalized error shape.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuth reports whether err is a rejected-credential failure.
func IsAuth(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindAuth
}

// IsNotFound reports whether err is a missing-entity failure.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindNotFound
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindNetwork
}

// IsValidation reports whether err is a request the backend refused.
func IsValidation(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindValidation
}
