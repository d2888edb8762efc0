package service

import (
	"context"
	"fmt"

	api "github.com/bww/go-urlservice/v1"
	"github.com/go-resty/resty/v2"
)

// RestyTransport sends requests through a resty client. The client should not
// be configured to retry.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport wraps a resty client. The client's request and response
// debug logs are redacted the same way the api client redacts its dumps, so
// enabling debug on it never logs credentials.
func NewRestyTransport(c *resty.Client) *RestyTransport {
	if c == nil {
		c = resty.New()
	}
	c.OnRequestLog(func(rl *resty.RequestLog) error {
		rl.Header = api.RedactHeader(rl.Header)
		return nil
	})
	c.OnResponseLog(func(rl *resty.ResponseLog) error {
		rl.Header = api.RedactHeader(rl.Header)
		return nil
	})
	return &RestyTransport{client: c}
}

func (t *RestyTransport) Send(cxt context.Context, req *Request) (*Response, error) {
	r := t.client.R().SetContext(cxt)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	for k, v := range req.Header {
		for _, e := range v {
			r.Header.Add(k, e)
		}
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	rsp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	if !rsp.IsSuccess() {
		u, _ := req.FullURL()
		return nil, &api.Error{
			Status:  rsp.StatusCode(),
			Method:  req.Method,
			URL:     u,
			Message: fmt.Sprintf("Request failed with status %s", rsp.Status()),
			Entity: &api.Entity{
				ContentType: rsp.Header().Get("Content-Type"),
				Data:        rsp.Body(),
			},
			Cause: api.ErrUnexpectedStatusCode,
		}
	}

	return &Response{
		Status: rsp.StatusCode(),
		Header: rsp.Header(),
		Body:   rsp.Body(),
	}, nil
}
