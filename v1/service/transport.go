package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	api "github.com/bww/go-urlservice/v1"
)

// Request is an outbound request, ready to be sent by a Transport.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   []byte // nil when the request has no entity
}

// FullURL returns the URL with the request query merged into any query the
// URL already has. When there is no query the URL is returned unchanged.
func (r *Request) FullURL() (string, error) {
	if len(r.Query) == 0 {
		return r.URL, nil
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", fmt.Errorf("Invalid URL: %w", err)
	}
	q := u.Query()
	for k, v := range r.Query {
		for _, e := range v {
			q.Add(k, e)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Response is a completed, successful response with its entity read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Text() string {
	return string(r.Body)
}

// A Transport sends requests. A response with a non-2XX status must be
// reported as a *RequestError.
type Transport interface {
	Send(context.Context, *Request) (*Response, error)
}

// APITransport sends requests through an api.Client.
type APITransport struct {
	client *api.Client
}

func NewAPITransport(c *api.Client) *APITransport {
	return &APITransport{client: c}
}

func (t *APITransport) Send(cxt context.Context, req *Request) (*Response, error) {
	u, err := req.FullURL()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(cxt, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Header {
		hreq.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}

	rsp, err := t.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, api.Errorf(rsp.StatusCode, "Could not read response").SetRequest(hreq).SetCause(err)
	}
	return &Response{
		Status: rsp.StatusCode,
		Header: rsp.Header,
		Body:   data,
	}, nil
}
