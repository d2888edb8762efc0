// Package urls maintains a table of named URL path templates and resolves
// them against a host.
//
// A template is a path which may contain parameter segments in the form
// `/:name`, for example:
//
//	/users/:id/posts/:post
//
// A parameter name consists of ASCII letters, digits and underscores. A colon
// which is not immediately preceded by a slash, or which is not followed by at
// least one name character, is literal.
package urls

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type segment struct {
	text  string
	param string // set for parameter segments
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func compile(tmpl string) []segment {
	var segs []segment
	lit := &strings.Builder{}
	for i := 0; i < len(tmpl); {
		if tmpl[i] == '/' && i+1 < len(tmpl) && tmpl[i+1] == ':' {
			j := i + 2
			for j < len(tmpl) && isNameByte(tmpl[j]) {
				j++
			}
			if j > i+2 {
				lit.WriteByte('/')
				segs = append(segs, segment{text: lit.String()})
				lit.Reset()
				segs = append(segs, segment{param: tmpl[i+2 : j]})
				i = j
				continue
			}
		}
		lit.WriteByte(tmpl[i])
		i++
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{text: lit.String()})
	}
	return segs
}

// A Table maps logical request names to URL path templates. A table is
// immutable once created and may be shared between goroutines.
type Table struct {
	templates map[string]string
	compiled  map[string][]segment
}

// New creates a table from the provided key/template pairs. The map is copied.
func New(m map[string]string) (*Table, error) {
	t := &Table{
		templates: make(map[string]string, len(m)),
		compiled:  make(map[string][]segment, len(m)),
	}
	for k, v := range m {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: empty key for template %q", ErrInvalidTable, v)
		}
		t.templates[k] = v
		t.compiled[k] = compile(v)
	}
	return t, nil
}

// Parse reads a table from YAML. The document is either a flat mapping of keys
// to templates or a mapping with a single `urls` key containing one.
func Parse(data []byte) (*Table, error) {
	var raw map[string]interface{}
	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if v, ok := raw["urls"].(map[string]interface{}); ok && len(raw) == 1 {
		raw = v
	}
	m := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: template for %q must be a string, not %T", ErrInvalidTable, k, v)
		}
		m[k] = s
	}
	return New(m)
}

// Load reads a YAML table from the file at path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Could not read URL table: %w", err)
	}
	return Parse(data)
}

// Len returns the number of entries in the table
func (t *Table) Len() int {
	return len(t.templates)
}

// Keys returns every key in the table, sorted.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.templates))
	for k := range t.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Template returns the raw template for a key.
func (t *Table) Template(key string) (string, bool) {
	v, ok := t.templates[key]
	return v, ok
}

// Params returns the names of the parameters a key's template requires, in
// order of appearance. Repeated names are reported once.
func (t *Table) Params(key string) ([]string, error) {
	segs, ok := t.compiled[key]
	if !ok {
		return nil, &ConfigurationError{Key: key}
	}
	var names []string
	seen := make(map[string]struct{})
	for _, e := range segs {
		if e.param == "" {
			continue
		}
		if _, ok := seen[e.param]; !ok {
			seen[e.param] = struct{}{}
			names = append(names, e.param)
		}
	}
	return names, nil
}

// Expand substitutes parameters into the template for key and returns the
// resulting path. The parameter map is not modified; entries which are not
// referenced by the template are ignored.
func (t *Table) Expand(key string, params map[string]interface{}) (string, error) {
	segs, ok := t.compiled[key]
	if !ok {
		return "", &ConfigurationError{Key: key}
	}
	b := &strings.Builder{}
	for _, e := range segs {
		if e.param == "" {
			b.WriteString(e.text)
			continue
		}
		v, ok := formatParam(params[e.param])
		if !ok {
			return "", &MissingParameterError{
				Key:      key,
				Template: t.templates[key],
				Param:    e.param,
			}
		}
		b.WriteString(v)
	}
	return b.String(), nil
}
