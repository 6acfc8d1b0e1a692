package apierror

import "net/http"

// Error is the collector's error reply. It has the backend's verbose shape
// so SDKs parse it like any rejection.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
	code    int
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) StatusCode() int {
	return e.code
}

func NewAPIError(msg string, status int) Error {
	return Error{
		Status:  0,
		Message: msg,
		code:    status,
	}
}

func BadRequest(msg string) Error {
	return NewAPIError(msg, http.StatusBadRequest)
}

func Unauthorized(msg string) Error {
	return NewAPIError(msg, http.StatusUnauthorized)
}
