package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	api "github.com/bww/go-urlservice/v1"
)

// A Parser converts a successful response into a result value.
type Parser interface {
	Parse(*Response) (interface{}, error)
}

type ParserFunc func(*Response) (interface{}, error)

func (f ParserFunc) Parse(rsp *Response) (interface{}, error) {
	return f(rsp)
}

var errEmptyEntity = errors.New("Response has no entity")

// decodeJSON decodes the response entity into v. A 204 response leaves v
// untouched; any other response must carry a JSON document.
func decodeJSON(rsp *Response, v interface{}) error {
	if rsp.Status == http.StatusNoContent {
		return nil
	}
	if len(bytes.TrimSpace(rsp.Body)) == 0 {
		return errEmptyEntity
	}
	return json.Unmarshal(rsp.Body, v)
}

// JSON parses the response entity as JSON into the generic representation:
// map[string]interface{}, []interface{}, string, float64, bool or nil. A 204
// response produces nil; an empty entity with any other status is an error.
var JSON Parser = ParserFunc(func(rsp *Response) (interface{}, error) {
	var v interface{}
	err := decodeJSON(rsp, &v)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// Raw produces the response entity unparsed, as []byte.
var Raw Parser = ParserFunc(func(rsp *Response) (interface{}, error) {
	return rsp.Body, nil
})

// Into parses the response entity as JSON into a value of type T. A 204
// response produces the zero value.
func Into[T any]() Parser {
	return ParserFunc(func(rsp *Response) (interface{}, error) {
		var v T
		err := decodeJSON(rsp, &v)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Entity decodes the response into out according to its content type (JSON,
// form or plain text) and produces out. Since out is shared by every call the
// parser is used for, it should not be used for concurrent requests.
func Entity(out interface{}) Parser {
	return ParserFunc(func(rsp *Response) (interface{}, error) {
		ent := api.Entity{ContentType: rsp.Header.Get("Content-Type")}
		if rsp.Status != http.StatusNoContent {
			ent.Data = rsp.Body
		}
		err := ent.Decode(out)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// As converts the result of a request to T.
func As[T any](v interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	c, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("Result is %T, not %T", v, zero)
	}
	return c, nil
}
