package urls

import (
	"fmt"
	"net/url"
)

// A Resolver produces absolute URLs from keys in a table.
type Resolver struct {
	host  string
	table *Table
}

func NewResolver(host string, table *Table) *Resolver {
	return &Resolver{
		host:  host,
		table: table,
	}
}

func (r *Resolver) Host() string {
	return r.host
}

func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve looks up key, substitutes params into its template and prefixes the
// result with the host. The host and path are concatenated as-is.
func (r *Resolver) Resolve(key string, params map[string]interface{}) (string, error) {
	if r.table == nil {
		return "", &ConfigurationError{Key: key}
	}
	p, err := r.table.Expand(key, params)
	if err != nil {
		return "", err
	}
	return r.host + p, nil
}

// a missing, nil or empty value is not a valid parameter
func formatParam(v interface{}) (string, bool) {
	var s string
	switch c := v.(type) {
	case nil:
		return "", false
	case string:
		s = c
	case fmt.Stringer:
		s = c.String()
	default:
		s = fmt.Sprint(c)
	}
	if s == "" {
		return "", false
	}
	return url.PathEscape(s), true
}
