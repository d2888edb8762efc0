package api

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/bww/go-util/v1/text"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/schema"
)

// EntityMarshaler is implemented by types which encode themselves for media
// types there is no codec for.
type EntityMarshaler interface {
	MarshalEntity() ([]byte, error)
}

// EntityUnmarshaler is implemented by types which decode themselves from
// media types there is no codec for. The media type is provided.
type EntityUnmarshaler interface {
	UnmarshalEntity(string, []byte) error
}

// Entity is a request or response body with its content type.
type Entity struct {
	ContentType string
	Data        []byte
}

// ReadEntity reads the body of a response into an entity. The body is not
// closed.
func ReadEntity(rsp *http.Response) (*Entity, error) {
	ent := &Entity{ContentType: rsp.Header.Get("Content-Type")}
	if rsp.Body == nil {
		return ent, nil
	}
	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, err
	}
	ent.Data = data
	return ent, nil
}

// EncodeEntity encodes v for the media type ctype. A nil value produces a nil
// entity.
func EncodeEntity(ctype string, v interface{}) (*Entity, error) {
	if v == nil {
		return nil, nil
	}
	m, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return nil, err
	}
	if c, ok := codecs[strings.ToLower(m)]; ok {
		data, err := c.encode(v)
		if err != nil {
			return nil, err
		}
		return &Entity{ContentType: ctype, Data: data}, nil
	}

	var data []byte
	switch e := v.(type) {
	case EntityMarshaler:
		data, err = e.MarshalEntity()
	case encoding.TextMarshaler:
		data, err = e.MarshalText()
	case encoding.BinaryMarshaler:
		data, err = e.MarshalBinary()
	default:
		return nil, fmt.Errorf("%w: cannot encode %T as %s", ErrUnsupportedMimetype, v, m)
	}
	if err != nil {
		return nil, err
	}
	return &Entity{ContentType: ctype, Data: data}, nil
}

// Decode decodes the entity into v, which must be a pointer. An empty entity
// sets v to its zero value regardless of the content type.
func (e Entity) Decode(v interface{}) error {
	if len(bytes.TrimSpace(e.Data)) == 0 {
		setZero(v)
		return nil
	}
	m, _, err := mime.ParseMediaType(e.ContentType)
	if err != nil {
		return fmt.Errorf("Invalid content type %q: %w", e.ContentType, err)
	}
	m = strings.ToLower(m)
	if c, ok := codecs[m]; ok {
		return c.decode(e.Data, v)
	}
	if u, ok := v.(EntityUnmarshaler); ok {
		return u.UnmarshalEntity(m, e.Data)
	}
	return fmt.Errorf("%w: cannot decode %s into %T", ErrUnsupportedMimetype, m, v)
}

func (e Entity) String() string {
	var d string
	if isMimetypeBinary(e.ContentType) {
		b := &strings.Builder{}
		text.Hexdump(b, e.Data, 20)
		d = b.String()
	} else {
		d = string(e.Data)
	}
	return fmt.Sprintf("---\n%s (%s)\n---\n%s\n#", e.ContentType, humanize.Bytes(uint64(len(e.Data))), d)
}

type codec struct {
	encode func(interface{}) ([]byte, error)
	decode func([]byte, interface{}) error
}

var (
	formEncoder *schema.Encoder
	formDecoder *schema.Decoder
	codecs      map[string]codec
)

func init() {
	formEncoder = schema.NewEncoder()
	formDecoder = schema.NewDecoder()
	formDecoder.IgnoreUnknownKeys(true)

	form := codec{encodeForm, decodeForm}
	codecs = map[string]codec{
		JSON:       {json.Marshal, json.Unmarshal},
		URLEncoded: form,
		Multipart:  form, // sent as a flat form; file parts are not supported
		PlainText:  {encodeText, decodeText},
	}
}

// formValues encodes maps directly and structs with gorilla/schema, which
// reads `schema` field tags.
func formValues(entity interface{}) (url.Values, error) {
	if v, ok := mapValues(entity); ok {
		return v, nil
	}
	val := make(url.Values)
	err := formEncoder.Encode(entity, val)
	if err != nil {
		return nil, err
	}
	return val, nil
}

func encodeForm(v interface{}) ([]byte, error) {
	val, err := formValues(v)
	if err != nil {
		return nil, err
	}
	return []byte(val.Encode()), nil
}

func decodeForm(data []byte, v interface{}) error {
	form, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	return formDecoder.Decode(v, form)
}

func encodeText(v interface{}) ([]byte, error) {
	switch e := v.(type) {
	case string:
		return []byte(e), nil
	case []byte:
		return e, nil
	case encoding.TextMarshaler:
		return e.MarshalText()
	case fmt.Stringer:
		return []byte(e.String()), nil
	default:
		return nil, fmt.Errorf("cannot encode %T as text", v)
	}
}

func decodeText(data []byte, v interface{}) error {
	switch e := v.(type) {
	case encoding.TextUnmarshaler:
		return e.UnmarshalText(data)
	case *string:
		*e = string(data)
		return nil
	case *[]byte:
		*e = data
		return nil
	default:
		return fmt.Errorf("cannot decode text into %T; must be *string, *[]byte or encoding.TextUnmarshaler", v)
	}
}

func setZero(v interface{}) {
	p := reflect.ValueOf(v)
	if p.Kind() == reflect.Pointer && !p.IsNil() {
		e := p.Elem()
		e.Set(reflect.Zero(e.Type()))
	}
}

func entityReader(ctype string, entity interface{}) (io.Reader, error) {
	switch v := entity.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(v), nil
	case io.Reader:
		return v, nil
	default:
		return Marshal(ctype, entity)
	}
}

// Marshal encodes entity for the media type ctype and produces a reader over
// the result.
func Marshal(ctype string, entity interface{}) (io.Reader, error) {
	ent, err := EncodeEntity(ctype, entity)
	if err != nil || ent == nil {
		return nil, err
	}
	return bytes.NewReader(ent.Data), nil
}

// Unmarshal decodes the response entity according to its content type. A 204
// response sets the entity to its zero value. The response body is closed.
func Unmarshal(rsp *http.Response, entity interface{}) error {
	if rsp.Body != nil {
		defer rsp.Body.Close()
	}
	if rsp.StatusCode == http.StatusNoContent {
		setZero(entity)
		return nil
	}
	ent, err := ReadEntity(rsp)
	if err != nil {
		return err
	}
	return ent.Decode(entity)
}

func isMimetypeBinary(t string) bool {
	m, p, err := mime.ParseMediaType(t)
	if err != nil {
		return true
	}
	if m == JSON || m == URLEncoded {
		return false
	} else if strings.HasPrefix(m, "text/") {
		return false
	} else if _, ok := p["charset"]; ok {
		return false
	} else {
		return true
	}
}
