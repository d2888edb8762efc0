// Package token provides the sources an authorization token is read from
// when request headers are built.
package token

import (
	"sync"

	"golang.org/x/oauth2"
)

// A Source produces the current authorization token. An empty token with a
// nil error means no token is available.
type Source interface {
	Token() (string, error)
}

// Static is a fixed token
type Static string

func (s Static) Token() (string, error) {
	return string(s), nil
}

// Memory holds a token in memory. The zero value is ready to use.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory(t string) *Memory {
	return &Memory{token: t}
}

func (m *Memory) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) SetToken(t string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = t
	return nil
}

func (m *Memory) Clear() error {
	return m.SetToken("")
}

type oauthSource struct {
	src oauth2.TokenSource
}

// OAuth2 adapts an oauth2 token source. The access token is used; the token
// type reported by the provider is ignored.
func OAuth2(src oauth2.TokenSource) Source {
	return oauthSource{src}
}

func (s oauthSource) Token() (string, error) {
	tok, err := s.src.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
