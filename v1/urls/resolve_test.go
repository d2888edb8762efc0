package urls

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testHost = "https://api.example.com"

type ident int

func (i ident) String() string {
	return fmt.Sprintf("u%d", int(i))
}

func testResolver(t *testing.T) *Resolver {
	tab, err := New(map[string]string{
		"listUsers":  "/users",
		"getUser":    "/users/:id",
		"getPost":    "/users/:id/posts/:post",
		"getFriend":  "/users/:id/friends/:id",
		"getVersion": "/v:version/status",
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewResolver(testHost, tab)
}

func TestResolve(t *testing.T) {
	r := testResolver(t)
	tests := []struct {
		Key    string
		Params map[string]interface{}
		Expect string
		Error  error
	}{
		{
			"listUsers",
			nil,
			"https://api.example.com/users",
			nil,
		},
		{
			"listUsers",
			map[string]interface{}{"id": "42", "other": 1},
			"https://api.example.com/users",
			nil,
		},
		{
			"getUser",
			map[string]interface{}{"id": "42"},
			"https://api.example.com/users/42",
			nil,
		},
		{
			"getUser",
			map[string]interface{}{"id": 42},
			"https://api.example.com/users/42",
			nil,
		},
		{
			"getUser",
			map[string]interface{}{"id": ident(7)},
			"https://api.example.com/users/u7",
			nil,
		},
		{
			"getUser",
			map[string]interface{}{"id": "a b/c"},
			"https://api.example.com/users/a%20b%2Fc",
			nil,
		},
		{
			"getPost",
			map[string]interface{}{"id": "42", "post": "hello"},
			"https://api.example.com/users/42/posts/hello",
			nil,
		},
		{
			"getFriend",
			map[string]interface{}{"id": "42"},
			"https://api.example.com/users/42/friends/42",
			nil,
		},
		{
			"getVersion",
			nil,
			"https://api.example.com/v:version/status",
			nil,
		},
		{
			"getUser",
			nil,
			"",
			ErrMissingParameter,
		},
		{
			"getUser",
			map[string]interface{}{"id": ""},
			"",
			ErrMissingParameter,
		},
		{
			"getUser",
			map[string]interface{}{"id": nil},
			"",
			ErrMissingParameter,
		},
		{
			"getPost",
			map[string]interface{}{"id": "42"},
			"",
			ErrMissingParameter,
		},
		{
			"deleteUser",
			map[string]interface{}{"id": "42"},
			"",
			ErrUnknownKey,
		},
	}
	for i, e := range tests {
		u, err := r.Resolve(e.Key, e.Params)
		if e.Error != nil {
			assert.ErrorIs(t, err, e.Error, fmt.Sprintf("[#%d]", i))
		} else if assert.NoError(t, err, fmt.Sprintf("[#%d]", i)) {
			assert.Equal(t, e.Expect, u, fmt.Sprintf("[#%d]", i))
		}
	}
}

func TestResolveDoesNotConsumeParams(t *testing.T) {
	r := testResolver(t)
	p := map[string]interface{}{"id": "42", "post": "hello"}

	u, err := r.Resolve("getPost", p)
	assert.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/42/posts/hello", u)
	assert.Equal(t, map[string]interface{}{"id": "42", "post": "hello"}, p)

	u, err = r.Resolve("getPost", p) // the same map resolves twice
	assert.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/42/posts/hello", u)
}

func TestResolveErrors(t *testing.T) {
	r := testResolver(t)

	_, err := r.Resolve("deleteUser", nil)
	var cerr *ConfigurationError
	if assert.ErrorAs(t, err, &cerr) {
		assert.Equal(t, "deleteUser", cerr.Key)
	}

	_, err = r.Resolve("getPost", map[string]interface{}{"id": "1"})
	var merr *MissingParameterError
	if assert.ErrorAs(t, err, &merr) {
		assert.Equal(t, "getPost", merr.Key)
		assert.Equal(t, "post", merr.Param)
		assert.Equal(t, "/users/:id/posts/:post", merr.Template)
	}

	_, err = NewResolver(testHost, nil).Resolve("getUser", nil)
	assert.ErrorAs(t, err, &cerr)
}
