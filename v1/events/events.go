// Package events lets a client report the progress of its requests to any
// number of observers: loggers, counters, or hooks that veto a request before
// it is sent. An observer implements any combination of the observer
// interfaces and is only notified of the stages it implements.
package events

import (
	"net/http"
	"sync"
)

// Observers is a set of observers. It is safe to add observers while
// requests are being reported.
type Observers struct {
	sync.RWMutex
	observers  []interface{} // all observers
	preflight  []PreflightObserver
	postflight []PostflightObserver
	failure    []ErrorObserver
}

// NewObservers creates a set of observers. Each element may implement any
// combination of the observer interfaces.
func NewObservers(obs ...interface{}) *Observers {
	o := &Observers{}
	o.Add(obs...)
	return o
}

func (o *Observers) Len() int {
	if o == nil {
		return 0
	}
	o.RLock()
	defer o.RUnlock()
	return len(o.observers)
}

func (o *Observers) Add(add ...interface{}) {
	o.Lock()
	defer o.Unlock()
	for _, e := range add {
		o.observers = append(o.observers, e)
		if c, ok := e.(PreflightObserver); ok {
			o.preflight = append(o.preflight, c)
		}
		if c, ok := e.(PostflightObserver); ok {
			o.postflight = append(o.postflight, c)
		}
		if c, ok := e.(ErrorObserver); ok {
			o.failure = append(o.failure, c)
		}
	}
}

// WillSendRequest notifies preflight observers in order, stopping at the
// first error.
func (o *Observers) WillSendRequest(req *http.Request) error {
	if o == nil {
		return nil
	}
	o.RLock()
	obs := o.preflight
	o.RUnlock()
	for _, e := range obs {
		if err := e.WillSendRequest(req); err != nil {
			return err
		}
	}
	return nil
}

// DidReceiveResponse notifies postflight observers in order, stopping at the
// first error.
func (o *Observers) DidReceiveResponse(req *http.Request, rsp *http.Response) error {
	if o == nil {
		return nil
	}
	o.RLock()
	obs := o.postflight
	o.RUnlock()
	for _, e := range obs {
		if err := e.DidReceiveResponse(req, rsp); err != nil {
			return err
		}
	}
	return nil
}

// RequestFailedWithError notifies every error observer. The request has
// already failed, so one observer's error does not prevent the others from
// being notified; the first such error is returned.
func (o *Observers) RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error {
	if o == nil {
		return nil
	}
	o.RLock()
	obs := o.failure
	o.RUnlock()
	var first error
	for _, e := range obs {
		if oerr := e.RequestFailedWithError(req, rsp, err); oerr != nil && first == nil {
			first = oerr
		}
	}
	return first
}
