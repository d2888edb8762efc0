package api

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/bww/go-urlservice/v1/events"
	"go.uber.org/zap"
)

// Environment variables which enable request logging without changing code
const (
	DebugEnv       = "URLSERVICE_DEBUG_HTTP"
	VerboseEnv     = "URLSERVICE_VERBOSE_HTTP"
	DebugFilterEnv = "URLSERVICE_DEBUG_HTTP_FILTER"
)

// Debug controls request logging. Verbose logs each request and response;
// Debug also dumps headers and entities. When FilterURL is set only requests
// whose path matches it are logged.
type Debug struct {
	Debug     bool
	Verbose   bool
	FilterURL *regexp.Regexp
}

func (d Debug) Matches(req *http.Request) bool {
	return d.FilterURL == nil || d.FilterURL.MatchString(req.URL.Path)
}

// WithEnv enables logging from the environment. It never disables logging
// that is already enabled.
func (d Debug) WithEnv() (Debug, error) {
	d.Debug = d.Debug || os.Getenv(DebugEnv) != ""
	d.Verbose = d.Verbose || d.Debug || os.Getenv(VerboseEnv) != ""
	if v := os.Getenv(DebugFilterEnv); v != "" {
		m, err := regexp.Compile(v)
		if err != nil {
			return d, fmt.Errorf("Invalid %s: %w", DebugFilterEnv, err)
		}
		d.FilterURL = m
	}
	return d, nil
}

// Client configuration
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	Client      *http.Client
	Authorizer  Authorizer
	Observers   *events.Observers
	Logger      *zap.Logger
	Header      http.Header
	Redact      []string // headers redacted from dumps, in addition to DefaultRedactHeaders
	ContentType string
	Verbose     bool
	Debug       bool
}

type Option func(Config) Config

func WithAuthorizer(auth Authorizer) Option {
	return func(c Config) Config {
		c.Authorizer = auth
		return c
	}
}

func WithObservers(obs *events.Observers) Option {
	return func(c Config) Config {
		c.Observers = obs
		return c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c Config) Config {
		c.Logger = l
		return c
	}
}

func WithBaseURL(base string) Option {
	return func(c Config) Config {
		c.BaseURL = base
		return c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c Config) Config {
		c.Timeout = d
		return c
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c Config) Config {
		c.Client = h
		return c
	}
}

func WithContentType(t string) Option {
	return func(c Config) Config {
		c.ContentType = t
		return c
	}
}

func WithHeader(key, val string) Option {
	return func(c Config) Config {
		if c.Header == nil {
			c.Header = make(http.Header)
		}
		c.Header.Set(key, val)
		return c
	}
}

func WithHeaders(hdr http.Header) Option {
	return func(c Config) Config {
		if c.Header == nil {
			c.Header = make(http.Header)
		}
		for k, v := range hdr {
			c.Header[http.CanonicalHeaderKey(k)] = v
		}
		return c
	}
}

func WithRedactHeaders(names ...string) Option {
	return func(c Config) Config {
		c.Redact = append(c.Redact, names...)
		return c
	}
}

func WithDebug(on bool) Option {
	return func(c Config) Config {
		c.Debug, c.Verbose = on, on
		return c
	}
}

func WithVerbose(on bool) Option {
	return func(c Config) Config {
		c.Verbose = on
		return c
	}
}

func (c Config) WithOptions(opts []Option) Config {
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}
