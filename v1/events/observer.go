package events

import (
	"net/http"
)

// PreflightObserver is notified before a request is sent. Returning an error
// cancels the request.
type PreflightObserver interface {
	WillSendRequest(req *http.Request) error
}

type PreflightObserverFunc func(req *http.Request) error

func (o PreflightObserverFunc) WillSendRequest(req *http.Request) error {
	return o(req)
}

// PostflightObserver is notified when a successful response is received.
// Returning an error rejects the response.
type PostflightObserver interface {
	DidReceiveResponse(req *http.Request, rsp *http.Response) error
}

type PostflightObserverFunc func(req *http.Request, rsp *http.Response) error

func (o PostflightObserverFunc) DidReceiveResponse(req *http.Request, rsp *http.Response) error {
	return o(req, rsp)
}

// ErrorObserver is notified when a request fails, either in transit (rsp is
// nil) or with a non-2XX status.
type ErrorObserver interface {
	RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error
}

type ErrorObserverFunc func(req *http.Request, rsp *http.Response, err error) error

func (o ErrorObserverFunc) RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error {
	return o(req, rsp, err)
}

// Funcs observes every stage of a request with whichever of its functions
// are set.
type Funcs struct {
	Preflight  PreflightObserverFunc
	Postflight PostflightObserverFunc
	Failure    ErrorObserverFunc
}

func (f Funcs) WillSendRequest(req *http.Request) error {
	if f.Preflight == nil {
		return nil
	}
	return f.Preflight(req)
}

func (f Funcs) DidReceiveResponse(req *http.Request, rsp *http.Response) error {
	if f.Postflight == nil {
		return nil
	}
	return f.Postflight(req, rsp)
}

func (f Funcs) RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error {
	if f.Failure == nil {
		return nil
	}
	return f.Failure(req, rsp, err)
}
