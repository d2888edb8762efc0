package service

import (
	"errors"
	"fmt"

	api "github.com/bww/go-urlservice/v1"
)

var ErrUnsupportedMethod = errors.New("Unsupported method")

// RequestError describes a request which could not be completed, either
// because the transport failed or because the response status was not 2XX.
// Status and Entity are set when a response was received.
type RequestError = api.Error

// UnsupportedMethodError is returned when a request is dispatched with a
// method other than GET, POST or DELETE.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("%q is not a valid method", e.Method)
}

func (e *UnsupportedMethodError) Unwrap() error {
	return ErrUnsupportedMethod
}

// ResponseParseError is returned when a successful response could not be
// parsed. It matches api.ErrCouldNotUnmarshalResponse.
type ResponseParseError struct {
	Status int
	Method string
	URL    string
	Entity *api.Entity
	Cause  error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("%s %s: Could not parse response (%d); because: %v", e.Method, e.URL, e.Status, e.Cause)
}

func (e *ResponseParseError) Unwrap() []error {
	return []error{api.ErrCouldNotUnmarshalResponse, e.Cause}
}

// requestError converts a transport failure into a *RequestError, unless it
// already is one.
func requestError(req *Request, err error) error {
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return err
	}
	e := api.Errorf(0, "Request failed").SetCause(err)
	e.Method, e.URL = req.Method, req.URL
	return e
}
