package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/bww/go-util/v1/text"
	"go.uber.org/zap"
)

// Headers whose values never appear in request or response dumps
var DefaultRedactHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie"}

// RedactHeader produces a copy of hdr with the values of the headers in
// DefaultRedactHeaders, and any others named, replaced by a digest. Transports
// which log headers themselves use this to match the client's dumps.
func RedactHeader(hdr http.Header, names ...string) http.Header {
	return newRedactor(DefaultRedactHeaders, names).Header(hdr)
}

type redactor map[string]struct{}

func newRedactor(names ...[]string) redactor {
	r := make(redactor)
	for _, n := range names {
		for _, e := range n {
			r[http.CanonicalHeaderKey(e)] = struct{}{}
		}
	}
	return r
}

// Header produces a copy of hdr where sensitive values are replaced with
// their length and a short digest, so that equal secrets can still be
// recognized across dumps.
func (r redactor) Header(hdr http.Header) http.Header {
	res := make(http.Header, len(hdr))
	for k, v := range hdr {
		n := http.CanonicalHeaderKey(k)
		_, redact := r[n]
		for _, e := range v {
			if redact {
				sum := sha256.Sum256([]byte(e))
				e = fmt.Sprintf("<redacted %d bytes; sha256:%s>", len(e), hex.EncodeToString(sum[:8]))
			}
			res.Add(n, e)
		}
	}
	return res
}

func (r redactor) dump(hdr http.Header) string {
	b := &bytes.Buffer{}
	r.Header(hdr).Write(b)
	return text.Indent(b.String(), "   - ")
}

// peek reads body entirely and returns the data along with an equivalent
// reader to replace it with.
func peek(body io.ReadCloser) ([]byte, io.ReadCloser, error) {
	if body == nil || body == http.NoBody {
		return nil, body, nil
	}
	defer body.Close()
	d, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, err
	}
	return d, io.NopCloser(bytes.NewReader(d)), nil
}

// dumpReq logs the request headers and, when verbose, its body.
func (c *Client) dumpReq(log *zap.Logger, req *http.Request) error {
	fields := []zap.Field{zap.String("headers", c.redact.dump(req.Header))}
	if c.isVerbose(req) {
		d, body, err := peek(req.Body)
		if err != nil {
			return err
		}
		req.Body = body
		if len(d) > 0 {
			fields = append(fields, zap.String("body", text.Indent(string(d), "   > ")))
		}
	}
	log.Debug("api: request detail", fields...)
	return nil
}

// dumpRsp logs the response headers and, when verbose, its body.
func (c *Client) dumpRsp(log *zap.Logger, req *http.Request, rsp *http.Response) error {
	fields := []zap.Field{zap.String("headers", c.redact.dump(rsp.Header))}
	if c.isVerbose(req) {
		d, body, err := peek(rsp.Body)
		if err != nil {
			return err
		}
		rsp.Body = body
		if len(d) > 0 {
			fields = append(fields, zap.String("body", text.Indent(string(d), "   < ")))
		}
	}
	log.Debug("api: response detail", fields...)
	return nil
}
