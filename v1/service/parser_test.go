package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyResponses(t *testing.T) {
	tests := []*Response{
		{Status: http.StatusNoContent},
		{Status: http.StatusNoContent, Body: []byte(`{"ignored":true}`)},
	}
	for i, e := range tests {
		v, err := JSON.Parse(e)
		if assert.NoError(t, err, fmt.Sprintf("[#%d]", i)) {
			assert.Nil(t, v, fmt.Sprintf("[#%d]", i))
		}
		v, err = Into[map[string]int]().Parse(e)
		if assert.NoError(t, err, fmt.Sprintf("[#%d]", i)) {
			assert.Equal(t, map[string]int(nil), v, fmt.Sprintf("[#%d]", i))
		}
	}

	// a successful response other than 204 must carry a document
	tests = []*Response{
		{Status: http.StatusOK},
		{Status: http.StatusOK, Body: []byte("  \n")},
		{Status: http.StatusCreated, Body: []byte{}},
	}
	for i, e := range tests {
		_, err := JSON.Parse(e)
		assert.ErrorIs(t, err, errEmptyEntity, fmt.Sprintf("[#%d]", i))
		_, err = Into[map[string]int]().Parse(e)
		assert.ErrorIs(t, err, errEmptyEntity, fmt.Sprintf("[#%d]", i))
	}
}

func TestEmptyResponseIsParseError(t *testing.T) {
	rec := &recorder{rsp: &Response{Status: http.StatusOK, Header: http.Header{}}}
	svc := newTestService(t, "https://api.example.com", WithTransport(rec))

	_, err := svc.Get(context.Background(), Descriptor{URL: "listUsers"})
	var perr *ResponseParseError
	if assert.ErrorAs(t, err, &perr) {
		assert.Equal(t, http.StatusOK, perr.Status)
		assert.ErrorIs(t, err, errEmptyEntity)
	}

	rec.rsp = &Response{Status: http.StatusNoContent, Header: http.Header{}}
	v, err := svc.Get(context.Background(), Descriptor{URL: "listUsers"})
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestJSONValues(t *testing.T) {
	tests := []struct {
		Body   string
		Expect interface{}
	}{
		{`[1,"a",true,null]`, []interface{}{float64(1), "a", true, nil}},
		{`"text"`, "text"},
		{`12.5`, 12.5},
		{`{"a":{"b":[]}}`, map[string]interface{}{"a": map[string]interface{}{"b": []interface{}{}}}},
	}
	for i, e := range tests {
		v, err := JSON.Parse(&Response{Status: http.StatusOK, Body: []byte(e.Body)})
		if assert.NoError(t, err, fmt.Sprintf("[#%d]", i)) {
			assert.Equal(t, e.Expect, v, fmt.Sprintf("[#%d]", i))
		}
	}

	_, err := JSON.Parse(&Response{Status: http.StatusOK, Body: []byte(`{"a":`)})
	assert.Error(t, err)
}

func TestIsEmpty(t *testing.T) {
	var nilmap map[string]string
	var nilptr *struct{}
	tests := []struct {
		Value  interface{}
		Expect bool
	}{
		{nil, true},
		{nilmap, true},
		{nilptr, true},
		{map[string]interface{}{}, true},
		{url.Values{}, true},
		{"", true},
		{[]byte{}, true},
		{map[string]string{"a": "1"}, false},
		{struct{ A int }{}, false},
		{&struct{}{}, false},
		{0, false},
	}
	for i, e := range tests {
		assert.Equal(t, e.Expect, isEmpty(e.Value), fmt.Sprintf("[#%d] %#v", i, e.Value))
	}
}

func TestFullURL(t *testing.T) {
	tests := []struct {
		Request *Request
		Expect  string
	}{
		{
			&Request{URL: "https://api.example.com/users"},
			"https://api.example.com/users",
		},
		{
			&Request{URL: "https://api.example.com/users", Query: url.Values{"a": {"1", "2"}}},
			"https://api.example.com/users?a=1&a=2",
		},
		{
			&Request{URL: "https://api.example.com/users?b=0", Query: url.Values{"a": {"1"}}},
			"https://api.example.com/users?a=1&b=0",
		},
	}
	for i, e := range tests {
		u, err := e.Request.FullURL()
		if assert.NoError(t, err, fmt.Sprintf("[#%d]", i)) {
			assert.Equal(t, e.Expect, u, fmt.Sprintf("[#%d]", i))
		}
	}
}
