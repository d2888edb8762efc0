// Package multiplex dispatches many named requests concurrently through a
// bounded set of workers.
package multiplex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/bww/go-exec/v1"
	siter "github.com/bww/go-iterator/v1"
	"github.com/bww/go-urlservice/v1/service"
	"github.com/bww/go-util/v1/ext"
	"go.uber.org/zap"
)

var _reqid uint64

func nextReq() uint64 {
	return atomic.AddUint64(&_reqid, 1)
}

type Config struct {
	Errors  ErrorHandler
	Headers map[string]string
}

func (c Config) WithOptions(opts []Option) Config {
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

// ConfigureCall applies configured headers to a call. Headers already set by
// the call's descriptor take precedence.
func (c Config) ConfigureCall(call *Call) *Call {
	if len(c.Headers) == 0 {
		return call
	}
	hdr := make(map[string]string, len(c.Headers)+len(call.Descriptor.Headers))
	for k, v := range c.Headers {
		hdr[k] = v
	}
	for k, v := range call.Descriptor.Headers {
		hdr[k] = v
	}
	d := *call
	d.Descriptor.Headers = hdr
	return &d
}

type Option func(Config) Config

func WithErrorHandler(h ErrorHandler) Option {
	return func(c Config) Config {
		c.Errors = h
		return c
	}
}

func WithHeaders(h map[string]string) Option {
	return func(c Config) Config {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range h {
			c.Headers[k] = v
		}
		return c
	}
}

// A Call is one request to dispatch
type Call struct {
	Method     string
	Descriptor service.Descriptor
}

// A CallProducer produces the call at an index, or nil when there are no more.
type CallProducer interface {
	Call(int) (*Call, error)
}

type CallProducerFunc func(int) (*Call, error)

func (p CallProducerFunc) Call(i int) (*Call, error) {
	return p(i)
}

type StaticCallProducer []*Call

func (p StaticCallProducer) Call(i int) (*Call, error) {
	if i < len(p) {
		return p[i], nil
	} else {
		return nil, nil
	}
}

type DescriptorCallProducer struct {
	method string
	descs  []service.Descriptor
}

func NewGet(d []service.Descriptor) DescriptorCallProducer {
	return DescriptorCallProducer{
		method: http.MethodGet,
		descs:  d,
	}
}

func NewPost(d []service.Descriptor) DescriptorCallProducer {
	return DescriptorCallProducer{
		method: http.MethodPost,
		descs:  d,
	}
}

func NewDelete(d []service.Descriptor) DescriptorCallProducer {
	return DescriptorCallProducer{
		method: http.MethodDelete,
		descs:  d,
	}
}

func (p DescriptorCallProducer) Call(i int) (*Call, error) {
	if i >= len(p.descs) {
		return nil, nil
	}
	return &Call{
		Method:     p.method,
		Descriptor: p.descs[i],
	}, nil
}

type Result struct {
	Index int
	Value interface{}
}

type resultSet []*Result

func (r resultSet) Len() int           { return len(r) }
func (r resultSet) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r resultSet) Less(i, j int) bool { return r[i].Index < r[j].Index }

// Collect drains an iterator and produces its values in call order.
func Collect(iter siter.Iterator[*Result], err error) ([]interface{}, error) {
	if err != nil {
		return nil, err
	}

	var buf []*Result
	for {
		res, err := iter.Next()
		if errors.Is(err, siter.ErrClosed) {
			break
		} else if err != nil {
			return nil, err
		}
		buf = append(buf, res)
	}

	sort.Sort(resultSet(buf))
	vals := make([]interface{}, len(buf))
	for i, e := range buf {
		vals[i] = e.Value
	}

	return vals, nil
}

// CollectAs drains an iterator and converts its values, in call order, to E.
func CollectAs[E any](iter siter.Iterator[*Result], ents []E) ([]E, error) {
	vals, err := Collect(iter, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not collect results: %w", err)
	}
	ents = ents[0:0:len(ents)]
	for _, v := range vals {
		e, err := service.As[E](v, nil)
		if err != nil {
			return nil, err
		}
		ents = append(ents, e)
	}
	return ents, nil
}

// A Dispatcher sends a single call; *service.Service is a Dispatcher.
type Dispatcher interface {
	Dispatch(context.Context, string, service.Descriptor) (interface{}, error)
}

type Mux struct {
	Dispatcher
	concur  int
	errors  ErrorHandler
	log     *zap.Logger
	verbose bool
	debug   bool
}

func New(d Dispatcher, n int) *Mux {
	return &Mux{
		Dispatcher: d,
		concur:     max(1, n),
		log:        zap.NewNop(),
		verbose:    os.Getenv("URLSERVICE_VERBOSE_MUX") != "",
		debug:      os.Getenv("URLSERVICE_DEBUG_MUX") != "",
	}
}

// WithLogger sets the logger mux activity is reported to when the mux is in
// verbose or debug mode.
func (m *Mux) WithLogger(l *zap.Logger) *Mux {
	d := *m
	d.log = l
	return &d
}

// WithErrorHandler sets the default error handler, used when a call to Do
// does not provide one.
func (m *Mux) WithErrorHandler(h ErrorHandler) *Mux {
	d := *m
	d.errors = h
	return &d
}

func (m *Mux) WithDebug(on bool) *Mux {
	d := *m
	d.debug, d.verbose = on, on
	return &d
}

// Create a block for execution on a dispatcher
func block(cxt context.Context, conf Config, mux *Mux, i int, call *Call, iter siter.Writer[*Result]) func() error {
	reqid := nextReq()
	errh := ext.Coalesce(conf.Errors, mux.errors)
	log := mux.log.With(zap.Uint64("reqid", reqid), zap.Int("index", i), zap.String("method", call.Method), zap.String("key", call.Descriptor.URL))
	return func() error {
		start := time.Now()
		if mux.debug && mux.verbose {
			log.Debug("api: mux: dispatching")
		}
		val, err := mux.Dispatch(cxt, call.Method, call.Descriptor)
		if err != nil && errh != nil { // let the error handler process first if we have one
			val, err = errh.Handle(call, err)
			if err == nil && val == nil {
				return nil // error handler consumed the failure
			}
		}
		if err != nil {
			return fmt.Errorf("Could not multiplex request: %w", err)
		}
		if mux.debug {
			log.Debug("api: mux: completed", zap.Duration("elapsed", time.Since(start)))
		}
		return iter.Write(&Result{
			Index: i,
			Value: val,
		})
	}
}

// Do dispatches calls in parallel, producing an iterator of their results in
// the order they complete.
func (m *Mux) Do(cxt context.Context, p CallProducer, opts ...Option) (siter.Iterator[*Result], error) {
	conf := Config{}.WithOptions(opts)

	dsp := exec.NewDispatcher(m.concur, m.concur)
	err := dsp.Run(cxt)
	if err != nil {
		return nil, err
	}

	proc := make(chan siter.Result[*Result], m.concur)
	iter := siter.New[*Result](proc)

	go func() {
		defer func() {
			iter.Cancel(dsp.Error())
		}()
	outer:
		for i := 0; ; i++ {
			select {
			case <-cxt.Done():
				break outer
			default:
				// proceed
			}
			call, err := p.Call(i)
			if err != nil {
				iter.Cancel(err)
				return
			} else if call == nil {
				break outer // no more calls
			}
			err = dsp.Exec(block(cxt, conf, m, i, conf.ConfigureCall(call), iter))
			if errors.Is(err, exec.ErrCanceled) {
				break outer // dispatcher stopped, probably due to a previous error
			} else if err != nil {
				iter.Cancel(err)
				return
			}
		}
	}()

	return iter, nil
}
