package api

import (
	"encoding/base64"
	"net/http"

	"github.com/bww/go-urlservice/v1/token"
	"golang.org/x/oauth2"
)

// An authorizer authorizes requests
type Authorizer interface {
	Authorize(*http.Request) error
}

type AuthorizerFunc func(*http.Request) error

func (f AuthorizerFunc) Authorize(req *http.Request) error {
	return f(req)
}

type HeaderAuthorizer struct {
	header http.Header
}

func NewHeaderAuthorizer(h http.Header) HeaderAuthorizer {
	return HeaderAuthorizer{h}
}

func (a HeaderAuthorizer) Authorize(req *http.Request) error {
	for k, v := range a.header {
		if len(v) > 0 {
			req.Header.Set(k, v[0])
		}
	}
	return nil
}

type BasicAuthorizer struct {
	user, pass string
}

func NewBasicAuthorizer(u, p string) BasicAuthorizer {
	return BasicAuthorizer{u, p}
}

func (a BasicAuthorizer) Authorize(req *http.Request) error {
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(a.user+":"+a.pass)))
	return nil
}

// TokenAuthorizer sets an Authorization header in the form `<scheme> <token>`
// where the token is read from a source on every request.
type TokenAuthorizer struct {
	scheme string
	src    token.Source
}

func NewTokenAuthorizer(scheme string, src token.Source) TokenAuthorizer {
	return TokenAuthorizer{scheme, src}
}

func NewBearerAuthorizer(t string) TokenAuthorizer {
	return TokenAuthorizer{"Bearer", token.Static(t)}
}

// Credentials produces the header value. If the source fails the value is
// still produced, with an empty token, alongside the error.
func (a TokenAuthorizer) Credentials() (string, error) {
	var tok string
	var err error
	if a.src != nil {
		tok, err = a.src.Token()
	}
	return a.scheme + " " + tok, err
}

func (a TokenAuthorizer) Authorize(req *http.Request) error {
	v, err := a.Credentials()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", v)
	return nil
}

type OAuthAuthorizer struct {
	src oauth2.TokenSource
}

func NewOAuthAuthorizer(src oauth2.TokenSource) OAuthAuthorizer {
	return OAuthAuthorizer{src}
}

func (a OAuthAuthorizer) Token() (*oauth2.Token, error) {
	return a.src.Token()
}

func (a OAuthAuthorizer) Authorize(req *http.Request) error {
	tok, err := a.src.Token()
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	return nil
}
