package app

import "fmt"

// DomainError is an expected service-level failure: an empty note, a
// taken email, a malformed draft document. The HTTP layer maps it onto
// Status and serializes Code/Message/Details for the client; anything
// else that escapes the service is a 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}
