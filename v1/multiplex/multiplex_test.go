package multiplex

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	siter "github.com/bww/go-iterator/v1"
	"github.com/bww/go-rest/v1"
	"github.com/bww/go-router/v1"
	api "github.com/bww/go-urlservice/v1"
	"github.com/bww/go-urlservice/v1/service"
	"github.com/bww/go-urlservice/v1/urls"
	"github.com/bww/go-util/v1/debug"
	"github.com/bww/go-util/v1/errors"
	"github.com/stretchr/testify/assert"
)

func init() {
	debug.DumpRoutinesOnInterrupt()
}

type testService struct {
	svc *rest.Service
	svr *http.Server
	lnr net.Listener
}

func (s *testService) Addr() string {
	if s.lnr != nil {
		return fmt.Sprintf("localhost:%d", s.lnr.Addr().(*net.TCPAddr).Port)
	} else {
		return ""
	}
}

func (s *testService) Run() {
	lnr, err := net.Listen("tcp", ":0")
	if err != nil {
		panic(err)
	}

	svc := errors.Must(rest.New(rest.WithVerbose(debug.VERBOSE), rest.WithDebug(debug.DEBUG)))
	svc.Add("/hello/{index}", s.handleRequest).Methods("GET")
	svc.Add("/hello/{index}", s.handleRequest).Methods("DELETE")
	svc.Add("/tagged", s.handleTagged).Methods("GET")

	svr := &http.Server{
		Handler:      svc,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go svr.Serve(lnr)

	s.svc = svc
	s.svr = svr
	s.lnr = lnr
}

func (s *testService) handleRequest(req *router.Request, cxt router.Context) (*router.Response, error) {
	return router.NewResponse(http.StatusOK).SetString(api.JSON, cxt.Vars["index"])
}

func (s *testService) handleTagged(req *router.Request, cxt router.Context) (*router.Response, error) {
	return router.NewResponse(http.StatusOK).SetString(api.JSON, fmt.Sprintf("%q", req.Header.Get("X-Tag")))
}

func TestMultiplex(t *testing.T) {
	svc := &testService{}
	svc.Run()

	tab := errors.Must(urls.New(map[string]string{
		"hello":   "/hello/:index",
		"missing": "/missing/:index",
		"tagged":  "/tagged",
	}))
	cli, err := service.New(fmt.Sprintf("http://%s", svc.Addr()), tab)
	assert.NoError(t, err)
	px := New(cli, 20)

	n := 1000
	descs := func(key string) []service.Descriptor {
		d := make([]service.Descriptor, n)
		for i := 0; i < n; i++ {
			d[i] = service.Descriptor{
				URL:       key,
				URLParams: map[string]interface{}{"index": i},
			}
		}
		return d
	}

	t.Run("Expect errors", func(t *testing.T) {
		cxt, cancel := context.WithCancel(context.Background())
		defer cancel()

		iter, err := px.Do(cxt, NewGet(descs("missing")))
		if assert.NoError(t, err) {
			for {
				_, err := iter.Next()
				var apierr *service.RequestError
				if assert.ErrorAs(t, err, &apierr) {
					assert.Equal(t, http.StatusNotFound, apierr.Status)
				}
				break
			}
		}
	})

	t.Run("Expect success", func(t *testing.T) {
		cxt, cancel := context.WithCancel(context.Background())
		defer cancel()

		iter, err := px.Do(cxt, NewGet(descs("hello")))
		if assert.NoError(t, err) {
			var c int
			for {
				res, err := iter.Next()
				if err != nil {
					assert.ErrorIs(t, err, siter.ErrClosed)
					break
				}
				assert.Equal(t, float64(res.Index), res.Value)
				c++
			}
			assert.Equal(t, n, c)
		}
	})

	t.Run("Collect results", func(t *testing.T) {
		cxt, cancel := context.WithCancel(context.Background())
		defer cancel()

		vals, err := Collect(px.Do(cxt, NewDelete(descs("hello"))))
		if assert.NoError(t, err) {
			if assert.Len(t, vals, n) {
				for i, e := range vals {
					assert.Equal(t, float64(i), e)
				}
			}
		}
	})

	t.Run("Collect typed results", func(t *testing.T) {
		cxt, cancel := context.WithCancel(context.Background())
		defer cancel()

		d := descs("hello")
		for i := range d {
			d[i].Parser = service.Into[int]()
		}

		iter, err := px.Do(cxt, NewGet(d))
		if assert.NoError(t, err) {
			var nums []int
			nums, err = CollectAs(iter, nums)
			if assert.NoError(t, err) {
				if assert.Len(t, nums, n) {
					for i, e := range nums {
						assert.Equal(t, i, e)
					}
				}
			}
		}
	})

	t.Run("Handle errors", func(t *testing.T) {
		cxt, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := StaticCallProducer{
			{Method: http.MethodGet, Descriptor: service.Descriptor{URL: "hello", URLParams: map[string]interface{}{"index": 1}}},
			{Method: http.MethodGet, Descriptor: service.Descriptor{URL: "missing", URLParams: map[string]interface{}{"index": 2}}},
			{Method: http.MethodGet, Descriptor: service.Descriptor{URL: "missing", URLParams: map[string]interface{}{"index": 3}}},
		}
		errh := ErrorHandlerFunc(func(call *Call, err error) (interface{}, error) {
			if call.Descriptor.URLParams["index"] == 2 {
				return "recovered", nil
			}
			return nil, nil // consumed
		})

		vals, err := Collect(px.Do(cxt, calls, WithErrorHandler(errh)))
		if assert.NoError(t, err) {
			assert.Equal(t, []interface{}{float64(1), "recovered"}, vals)
		}
	})

	t.Run("Configure headers", func(t *testing.T) {
		cxt, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := CallProducerFunc(func(i int) (*Call, error) {
			switch i {
			case 0:
				return &Call{Method: http.MethodGet, Descriptor: service.Descriptor{URL: "tagged"}}, nil
			case 1:
				return &Call{Method: http.MethodGet, Descriptor: service.Descriptor{URL: "tagged", Headers: map[string]string{"X-Tag": "own"}}}, nil
			default:
				return nil, nil
			}
		})

		vals, err := Collect(px.Do(cxt, calls, WithHeaders(map[string]string{"X-Tag": "mux"})))
		if assert.NoError(t, err) {
			assert.Equal(t, []interface{}{"mux", "own"}, vals)
		}
	})
}
