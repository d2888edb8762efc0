package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/bww/go-metrics/v1"
	"github.com/bww/go-urlservice/v1/events"
	errutil "github.com/bww/go-util/v1/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/go-querystring/query"
	"go.uber.org/zap"
)

var requestDurationSampler = metrics.RegisterSamplerVec("rest_client_perform_request", "Perform an HTTP request", []string{"domain"})

var reqctr int64

const (
	JSON       = "application/json"
	URLEncoded = "application/x-www-form-urlencoded"
	Multipart  = "multipart/form-data"
	PlainText  = "text/plain"
)

// shared HTTP client
var sharedClient = &http.Client{
	Timeout: time.Second * 60,
}

// An API client
type Client struct {
	*http.Client
	auth   Authorizer
	obs    *events.Observers
	log    *zap.Logger
	base   *url.URL
	header http.Header
	redact redactor
	dctype string
	debug  Debug
}

// Create a new client
func New(opts ...Option) (*Client, error) {
	return NewWithConfig(Config{}.WithOptions(opts))
}

// Create a new client with a configuration
func NewWithConfig(conf Config) (*Client, error) {
	var err error

	var base *url.URL
	if u := conf.BaseURL; u != "" {
		base, err = url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("Invalid base URL: %v", err)
		}
	}

	var client *http.Client
	if conf.Client != nil {
		client = conf.Client
	} else if conf.Timeout > 0 {
		client = &http.Client{Timeout: conf.Timeout}
	} else {
		client = sharedClient
	}

	ctype := conf.ContentType
	if ctype == "" {
		ctype = JSON
	}

	log := conf.Logger
	if log == nil {
		log = zap.NewNop()
	}

	debug, err := Debug{
		Debug:   conf.Debug,
		Verbose: conf.Verbose,
	}.WithEnv()
	if err != nil {
		return nil, err
	}

	return &Client{
		Client: client,
		auth:   conf.Authorizer,
		obs:    conf.Observers,
		log:    log,
		base:   base,
		header: conf.Header,
		redact: newRedactor(DefaultRedactHeaders, conf.Redact),
		dctype: ctype,
		debug:  debug,
	}, nil
}

func (c *Client) Base() *url.URL {
	return c.base
}

func (c *Client) WithBase(b *url.URL) *Client {
	d := *c
	d.base = b
	return &d
}

func (c *Client) Authorizer() Authorizer {
	return c.auth
}

func (c *Client) WithAuthorizer(a Authorizer) *Client {
	d := *c
	d.auth = a
	return &d
}

func (c *Client) ContentType() string {
	return c.dctype
}

func (c *Client) isVerbose(req *http.Request) bool {
	if !c.debug.Verbose {
		return false
	}
	return c.debug.Matches(req)
}

func (c *Client) isDebug(req *http.Request) bool {
	if !c.debug.Debug {
		return false
	}
	return c.debug.Matches(req)
}

// A convenience for Exec with a GET request
func (c *Client) Get(cxt context.Context, u string, output interface{}, opts ...Option) (*http.Response, error) {
	req, err := http.NewRequestWithContext(cxt, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.Exec(req, output, opts...)
}

// A convenience for Exec with a POST request
func (c *Client) Post(cxt context.Context, u string, input, output interface{}, opts ...Option) (*http.Response, error) {
	return c.send(cxt, http.MethodPost, u, input, output, opts)
}

// A convenience for Exec with a PUT request
func (c *Client) Put(cxt context.Context, u string, input, output interface{}, opts ...Option) (*http.Response, error) {
	return c.send(cxt, http.MethodPut, u, input, output, opts)
}

// A convenience for Exec with a DELETE request
func (c *Client) Delete(cxt context.Context, u string, input, output interface{}, opts ...Option) (*http.Response, error) {
	return c.send(cxt, http.MethodDelete, u, input, output, opts)
}

func (c *Client) send(cxt context.Context, method, u string, input, output interface{}, opts []Option) (*http.Response, error) {
	data, err := entityReader(c.dctype, input)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(cxt, method, u, data)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", c.dctype)
	}
	return c.Exec(req, output, opts...)
}

// Perform a request and attempt to unmarshal the response into an entity.
func (c *Client) Exec(req *http.Request, entity interface{}, opts ...Option) (*http.Response, error) {
	conf := Config{}.WithOptions(opts)
	for k, v := range conf.Header {
		for _, e := range v {
			req.Header.Set(k, e)
		}
	}

	rsp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if entity != nil {
		err = c.unmarshal(rsp, req, entity)
		if err != nil {
			return nil, err
		}
	}
	return rsp, nil
}

// Unmarshal the provided response into the provided entity. The caller must close
// the response body, this method will not do so. On failure the error carries
// the entity that could not be decoded.
func (c *Client) unmarshal(rsp *http.Response, req *http.Request, entity interface{}) error {
	if rsp.StatusCode == http.StatusNoContent {
		setZero(entity)
		return nil
	}
	ent, err := ReadEntity(rsp)
	if err == nil {
		err = ent.Decode(entity)
	}
	if err != nil {
		return Errorf(rsp.StatusCode, "Could not unmarshal response").
			SetRequest(req).
			SetEntity(ent).
			SetCause(wrapErr(err, ErrCouldNotUnmarshalResponse))
	}
	return nil
}

// Perform a request. The client may mutate the parameter request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.RoundTrip(req)
}

// Round-trip a request. The client may mutate the parameter request. A non-2XX
// response is returned as an *Error carrying the response entity.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	reqid := atomic.AddInt64(&reqctr, 1)

	if c.base != nil {
		req.URL = c.base.ResolveReference(req.URL)
	}

	domain := req.URL.Host
	defer func() {
		requestDurationSampler.With(metrics.Tags{"domain": domain}).Observe(float64(time.Since(start)))
	}()

	if c.auth != nil {
		err := c.auth.Authorize(req)
		if err != nil {
			return nil, errutil.Redact(fmt.Errorf("Could not authorize request: %v", err), ErrCouldNotAuthorize)
		}
	}
	for k, v := range c.header {
		n := http.CanonicalHeaderKey(k)
		if _, set := req.Header[n]; !set { // don't overrwrite explicitly set headers
			req.Header[n] = v
		}
	}

	err := c.obs.WillSendRequest(req)
	if err != nil {
		return nil, fmt.Errorf("Request rejected by observer: %w", err)
	}

	log := c.log.With(zap.Int64("reqid", reqid), zap.String("method", req.Method), zap.Stringer("url", req.URL))
	if c.isVerbose(req) || c.isDebug(req) {
		log.Debug("api: sending request")
	}
	if c.isDebug(req) {
		err := c.dumpReq(log, req)
		if err != nil {
			return nil, err
		}
	}

	rsp, err := c.Client.Do(req)
	if err != nil {
		c.obs.RequestFailedWithError(req, nil, err)
		return nil, err
	}

	err = checkErr(reqid, req, rsp)
	if err != nil { // the error captures the response entity; the body is consumed
		rsp.Body.Close()
		c.obs.RequestFailedWithError(req, rsp, err)
		return nil, err
	}

	if c.isVerbose(req) || c.isDebug(req) {
		var l string
		if rsp.ContentLength >= 0 {
			l = humanize.Bytes(uint64(rsp.ContentLength))
		} else {
			l = "<unknown>"
		}
		log.Debug("api: received response", zap.String("status", rsp.Status), zap.String("length", l), zap.Duration("elapsed", time.Since(start)))
	}
	if c.isDebug(req) {
		err := c.dumpRsp(log, req, rsp)
		if err != nil {
			rsp.Body.Close()
			return nil, err
		}
	}

	err = c.obs.DidReceiveResponse(req, rsp)
	if err != nil {
		rsp.Body.Close()
		return nil, fmt.Errorf("Response rejected by observer: %w", err)
	}

	return rsp, nil
}

// QueryValues converts params to URL values. Maps and url.Values are converted
// directly; anything else is encoded with go-querystring, which expects a
// struct with `url` field tags.
func QueryValues(params interface{}) (url.Values, error) {
	if params == nil {
		return url.Values{}, nil
	}
	if v, ok := mapValues(params); ok {
		return v, nil
	}
	v := reflect.ValueOf(params)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return url.Values{}, nil
	}
	return query.Values(params)
}

// URLWithParams replaces the query of s with the encoded params.
func URLWithParams(s string, params interface{}) (string, error) {
	v := reflect.ValueOf(params)
	if params == nil || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return s, err
	}
	q, err := QueryValues(params)
	if err != nil {
		return s, err
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func mapValues(params interface{}) (url.Values, bool) {
	switch p := params.(type) {
	case url.Values:
		return p, true
	case map[string][]string:
		return url.Values(p), true
	case map[string]string:
		v := make(url.Values, len(p))
		for k, e := range p {
			v.Set(k, e)
		}
		return v, true
	case map[string]interface{}:
		v := make(url.Values, len(p))
		for k, e := range p {
			switch c := e.(type) {
			case nil:
				continue
			case []string:
				for _, x := range c {
					v.Add(k, x)
				}
			case []interface{}:
				for _, x := range c {
					v.Add(k, fmt.Sprint(x))
				}
			case time.Time:
				v.Set(k, c.Format(time.RFC3339Nano))
			default:
				v.Set(k, fmt.Sprint(c))
			}
		}
		return v, true
	default:
		return nil, false
	}
}
