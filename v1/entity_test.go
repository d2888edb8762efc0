package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type celsius float64

func (c celsius) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%.1fC", float64(c))), nil
}

type opaque struct {
	ctype string
	data  string
}

func (o *opaque) UnmarshalEntity(ctype string, data []byte) error {
	o.ctype, o.data = ctype, string(data)
	return nil
}

func TestEncodeEntity(t *testing.T) {
	tests := []struct {
		ContentType string
		Value       interface{}
		Expect      string
		Error       error
	}{
		{JSON, map[string]int{"a": 1}, `{"a":1}`, nil},
		{JSON + "; charset=utf-8", []string{"x"}, `["x"]`, nil},
		{URLEncoded, map[string]string{"q": "a b"}, `q=a+b`, nil},
		{URLEncoded, struct {
			Id int `schema:"id"`
		}{5}, `id=5`, nil},
		{PlainText, "hello", "hello", nil},
		{PlainText, celsius(21.5), "21.5C", nil},
		{"application/octet-stream", celsius(3), "3.0C", nil},
		{"application/octet-stream", struct{}{}, "", ErrUnsupportedMimetype},
	}
	for i, e := range tests {
		ent, err := EncodeEntity(e.ContentType, e.Value)
		if e.Error != nil {
			assert.ErrorIs(t, err, e.Error, fmt.Sprintf("[#%d]", i))
		} else if assert.NoError(t, err, fmt.Sprintf("[#%d]", i)) {
			assert.Equal(t, e.Expect, string(ent.Data), fmt.Sprintf("[#%d]", i))
			assert.Equal(t, e.ContentType, ent.ContentType, fmt.Sprintf("[#%d]", i))
		}
	}

	ent, err := EncodeEntity(JSON, nil)
	assert.NoError(t, err)
	assert.Nil(t, ent)

	_, err = EncodeEntity("not a media type;;", "x")
	assert.Error(t, err)
}

func TestDecodeEntity(t *testing.T) {
	var m map[string]int
	err := Entity{ContentType: JSON, Data: []byte(`{"a":1}`)}.Decode(&m)
	if assert.NoError(t, err) {
		assert.Equal(t, map[string]int{"a": 1}, m)
	}

	err = Entity{Data: []byte("  ")}.Decode(&m)
	if assert.NoError(t, err) {
		assert.Nil(t, m)
	}

	var s string
	err = Entity{ContentType: "text/plain; charset=utf-8", Data: []byte("hi")}.Decode(&s)
	if assert.NoError(t, err) {
		assert.Equal(t, "hi", s)
	}
	var n int
	err = Entity{ContentType: PlainText, Data: []byte("1")}.Decode(&n)
	assert.Error(t, err)

	var form struct {
		Name string `schema:"name"`
	}
	err = Entity{ContentType: URLEncoded, Data: []byte("name=Bob&extra=1")}.Decode(&form)
	if assert.NoError(t, err) {
		assert.Equal(t, "Bob", form.Name)
	}

	var o opaque
	err = Entity{ContentType: "application/x-custom", Data: []byte("raw")}.Decode(&o)
	if assert.NoError(t, err) {
		assert.Equal(t, opaque{"application/x-custom", "raw"}, o)
	}

	err = Entity{ContentType: "application/x-custom", Data: []byte("raw")}.Decode(&s)
	assert.ErrorIs(t, err, ErrUnsupportedMimetype)

	err = Entity{ContentType: "", Data: []byte("raw")}.Decode(&s)
	assert.Error(t, err)
}

func TestUnmarshalResponse(t *testing.T) {
	body := func(s string) io.ReadCloser {
		return io.NopCloser(bytes.NewBufferString(s))
	}

	var m map[string]string
	err := Unmarshal(&http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{JSON}},
		Body:       body(`{"k":"v"}`),
	}, &m)
	if assert.NoError(t, err) {
		assert.Equal(t, map[string]string{"k": "v"}, m)
	}

	err = Unmarshal(&http.Response{
		StatusCode: http.StatusNoContent,
		Header:     http.Header{"Content-Type": []string{JSON}},
		Body:       body(`{"k":"ignored"}`),
	}, &m)
	if assert.NoError(t, err) {
		assert.Nil(t, m)
	}
}

func TestEntityString(t *testing.T) {
	assert.Contains(t, Entity{ContentType: JSON, Data: []byte(`{"a":1}`)}.String(), `{"a":1}`)
	assert.Contains(t, Entity{ContentType: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}}.String(), "image/png (4 B)")
}

func TestErrorDecode(t *testing.T) {
	var doc struct {
		Message string `json:"message"`
	}
	err := Errorf(http.StatusBadRequest, "Bad").SetEntity(&Entity{ContentType: JSON, Data: []byte(`{"message":"nope"}`)})
	if assert.NoError(t, err.Decode(&doc)) {
		assert.Equal(t, "nope", doc.Message)
	}
	assert.NoError(t, Errorf(http.StatusBadRequest, "Bad").Decode(&doc))
	assert.Equal(t, "", doc.Message)
}
