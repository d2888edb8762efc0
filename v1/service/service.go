// Package service dispatches requests against a table of named URL templates.
//
// A Service resolves the named URL for a request, attaches authorization and
// content headers, sends it through a Transport and parses the response:
//
//	svc, err := service.New("https://api.example.com", table, service.WithTokens(store))
//	...
//	user, err := svc.Get(cxt, service.Descriptor{
//		URL:       "getUser",
//		URLParams: map[string]interface{}{"id": 42},
//	})
//
// A Service holds no per-request state and may be used concurrently.
package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/bww/go-metrics/v1"
	api "github.com/bww/go-urlservice/v1"
	"github.com/bww/go-urlservice/v1/token"
	"github.com/bww/go-urlservice/v1/urls"
	"go.uber.org/zap"
)

var dispatchSampler = metrics.RegisterSamplerVec("url_service_dispatch", "Dispatch a named request", []string{"key", "method"})

const DefaultAuthScheme = "Token"

// Service configuration
type Config struct {
	Host       string
	Table      *urls.Table
	Tokens     token.Source
	AuthScheme string
	Transport  Transport
	Parser     Parser
	Logger     *zap.Logger
}

type Option func(Config) Config

func WithTokens(src token.Source) Option {
	return func(c Config) Config {
		c.Tokens = src
		return c
	}
}

func WithAuthScheme(s string) Option {
	return func(c Config) Config {
		c.AuthScheme = s
		return c
	}
}

func WithTransport(t Transport) Option {
	return func(c Config) Config {
		c.Transport = t
		return c
	}
}

func WithParser(p Parser) Option {
	return func(c Config) Config {
		c.Parser = p
		return c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c Config) Config {
		c.Logger = l
		return c
	}
}

func (c Config) WithOptions(opts []Option) Config {
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

type Service struct {
	resolver  *urls.Resolver
	auth      api.TokenAuthorizer
	transport Transport
	parser    Parser
	log       *zap.Logger
}

// Create a service for a host and URL table
func New(host string, table *urls.Table, opts ...Option) (*Service, error) {
	return NewWithConfig(Config{Host: host, Table: table}.WithOptions(opts))
}

// Create a service with a configuration
func NewWithConfig(conf Config) (*Service, error) {
	if conf.Table == nil {
		return nil, fmt.Errorf("%w: no URL table", urls.ErrInvalidTable)
	}

	log := conf.Logger
	if log == nil {
		log = zap.NewNop()
	}

	scheme := conf.AuthScheme
	if scheme == "" {
		scheme = DefaultAuthScheme
	}

	tokens := conf.Tokens
	if tokens == nil {
		tokens = token.Static("")
	}

	transport := conf.Transport
	if transport == nil {
		c, err := api.New(api.WithLogger(log))
		if err != nil {
			return nil, err
		}
		transport = NewAPITransport(c)
	}

	parser := conf.Parser
	if parser == nil {
		parser = JSON
	}

	return &Service{
		resolver:  urls.NewResolver(conf.Host, conf.Table),
		auth:      api.NewTokenAuthorizer(scheme, tokens),
		transport: transport,
		parser:    parser,
		log:       log,
	}, nil
}

func (s *Service) Host() string {
	return s.resolver.Host()
}

func (s *Service) Table() *urls.Table {
	return s.resolver.Table()
}

// Resolve produces the absolute URL for a key and its parameters. The
// parameter map is not modified.
func (s *Service) Resolve(key string, params map[string]interface{}) (string, error) {
	return s.resolver.Resolve(key, params)
}

// Headers produces the default request headers, an Authorization header from
// the token source and a JSON Content-Type, with overrides applied on top. If
// the token cannot be read the Authorization header carries an empty token.
func (s *Service) Headers(overrides map[string]string) http.Header {
	cred, err := s.auth.Credentials()
	if err != nil {
		s.log.Warn("Could not read authorization token", zap.Error(err))
	}
	hdr := make(http.Header)
	hdr.Set("Authorization", cred)
	hdr.Set("Content-Type", api.JSON)
	for k, v := range overrides {
		hdr.Set(k, v)
	}
	return hdr
}

// A convenience for Dispatch with a GET request
func (s *Service) Get(cxt context.Context, d Descriptor) (interface{}, error) {
	return s.Dispatch(cxt, http.MethodGet, d)
}

// A convenience for Dispatch with a POST request
func (s *Service) Post(cxt context.Context, d Descriptor) (interface{}, error) {
	return s.Dispatch(cxt, http.MethodPost, d)
}

// A convenience for Dispatch with a DELETE request
func (s *Service) Delete(cxt context.Context, d Descriptor) (interface{}, error) {
	return s.Dispatch(cxt, http.MethodDelete, d)
}

// Request builds the outbound request for a method and descriptor without
// sending it.
func (s *Service) Request(method string, d Descriptor) (*Request, error) {
	m := strings.ToUpper(method)
	switch m {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}

	u, err := s.Resolve(d.URL, d.URLParams)
	if err != nil {
		return nil, err
	}

	hdr := http.Header{"Accept": []string{api.JSON}}
	for k, v := range s.Headers(d.Headers) {
		hdr[k] = v
	}

	req := &Request{
		Method: m,
		URL:    u,
		Header: hdr,
	}
	switch m {
	case http.MethodGet:
		q := d.Query
		if !isEmpty(d.Body) {
			q = d.Body
		}
		req.Query, err = api.QueryValues(q)
	case http.MethodPost:
		req.Query, err = api.QueryValues(d.Query)
		if err == nil {
			req.Body, err = encodeBody(hdr.Get("Content-Type"), d.Body)
		}
		if err == nil && req.Body == nil {
			hdr.Del("Content-Type")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("Could not encode request for %q: %w", d.URL, err)
	}

	return req, nil
}

// Dispatch sends a request for the descriptor and produces the parsed result.
func (s *Service) Dispatch(cxt context.Context, method string, d Descriptor) (interface{}, error) {
	req, err := s.Request(method, d)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		dispatchSampler.With(metrics.Tags{"key": d.URL, "method": req.Method}).Observe(float64(time.Since(start)))
	}()

	s.log.Debug("Dispatching request", zap.String("key", d.URL), zap.String("method", req.Method), zap.String("url", req.URL))
	rsp, err := s.transport.Send(cxt, req)
	if err != nil {
		return nil, requestError(req, err)
	}

	parser := d.Parser
	if parser == nil {
		parser = s.parser
	}
	res, err := parser.Parse(rsp)
	if err != nil {
		return nil, &ResponseParseError{
			Status: rsp.Status,
			Method: req.Method,
			URL:    req.URL,
			Entity: &api.Entity{
				ContentType: rsp.Header.Get("Content-Type"),
				Data:        rsp.Body,
			},
			Cause: err,
		}
	}

	return res, nil
}

// encodeBody marshals entity for the content type. An empty entity is sent as
// an empty JSON object when the content type is JSON and produces no body at
// all otherwise.
func encodeBody(ctype string, entity interface{}) ([]byte, error) {
	if isEmpty(entity) {
		if m, _, err := mime.ParseMediaType(ctype); err == nil && strings.EqualFold(m, api.JSON) {
			return []byte("{}"), nil
		}
		return nil, nil
	}
	switch v := entity.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	ent, err := api.EncodeEntity(ctype, entity)
	if err != nil || ent == nil {
		return nil, err
	}
	return ent.Data, nil
}
