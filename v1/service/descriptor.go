package service

import (
	"reflect"
)

// A Descriptor describes a single request against a named URL.
type Descriptor struct {
	// URL is the key of the URL template in the service's table.
	URL string
	// URLParams supplies values for the template's `/:name` segments.
	URLParams map[string]interface{}
	// Body carries the request parameters. It is sent as the entity of a POST
	// and as the query of a GET.
	Body interface{}
	// Query carries query parameters for a POST, or for a GET which has no Body.
	Query interface{}
	// Headers override the default headers.
	Headers map[string]string
	// Parser overrides the service's response parser for this request.
	Parser Parser
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	r := reflect.ValueOf(v)
	switch r.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return r.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return r.IsNil()
	default:
		return false
	}
}
