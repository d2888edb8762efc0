package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bww/go-urlservice/v1/service"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

type requestFlags struct {
	params  []string
	query   []string
	data    []string
	headers []string
	body    string
	sel     string
}

func (f *requestFlags) descriptor(key string) (service.Descriptor, error) {
	params, err := parsePairs(f.params)
	if err != nil {
		return service.Descriptor{}, fmt.Errorf("params: %w", err)
	}
	query, err := parsePairs(f.query)
	if err != nil {
		return service.Descriptor{}, fmt.Errorf("query: %w", err)
	}
	data, err := parsePairs(f.data)
	if err != nil {
		return service.Descriptor{}, fmt.Errorf("data: %w", err)
	}
	hdrs, err := parseHeaders(f.headers)
	if err != nil {
		return service.Descriptor{}, err
	}

	var body interface{} = data
	if f.body != "" {
		if len(data) > 0 {
			return service.Descriptor{}, fmt.Errorf("--body and --data are mutually exclusive")
		}
		if err := json.Unmarshal([]byte(f.body), &body); err != nil {
			return service.Descriptor{}, fmt.Errorf("body is not valid JSON: %w", err)
		}
	}

	return service.Descriptor{
		URL:       key,
		URLParams: params,
		Body:      body,
		Query:     query,
		Headers:   hdrs,
		Parser:    service.Raw,
	}, nil
}

func newRequestCmd(a *app, method string) *cobra.Command {
	f := &requestFlags{}
	cmd := &cobra.Command{
		Use:   method + " <key>",
		Short: fmt.Sprintf("Send a %s request to a named URL", strings.ToUpper(method)),
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			d, err := f.descriptor(args[0])
			if err != nil {
				return err
			}
			res, err := svc.Dispatch(cmd.Context(), method, d)
			if err != nil {
				return err
			}
			return writeResult(cmd, res.([]byte), f.sel)
		}),
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&f.params, "param", "p", nil, "URL parameter as name=value (repeatable)")
	flags.StringArrayVarP(&f.query, "query", "q", nil, "Query parameter as name=value (repeatable)")
	flags.StringArrayVarP(&f.headers, "header", "H", nil, "Header as 'Name: value' (repeatable)")
	flags.StringVar(&f.sel, "select", "", "Print only the value at this JSON path")
	if method != "delete" {
		flags.StringArrayVarP(&f.data, "data", "d", nil, "Body field as name=value (repeatable)")
		flags.StringVar(&f.body, "body", "", "Request body as a JSON document")
	}

	if method == "get" {
		cmd.Long = "Send a GET request to a named URL. Body fields are sent as query\nparameters and take the place of --query when both are given."
	}

	return cmd
}

func writeResult(cmd *cobra.Command, data []byte, sel string) error {
	out := cmd.OutOrStdout()
	if sel == "" {
		if len(data) == 0 {
			return nil
		}
		s := string(data)
		if !strings.HasSuffix(s, "\n") {
			s += "\n"
		}
		_, err := fmt.Fprint(out, s)
		return err
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("response is not JSON; cannot select %q", sel)
	}
	res := gjson.GetBytes(data, sel)
	if !res.Exists() {
		return fmt.Errorf("no value at %q", sel)
	}
	if res.Type == gjson.String {
		_, err := fmt.Fprintln(out, res.Str)
		return err
	}
	_, err := fmt.Fprintln(out, res.Raw)
	return err
}

// parsePairs parses name=value arguments. A later value for a name replaces
// an earlier one.
func parsePairs(args []string) (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(args))
	for _, e := range args {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected name=value, got %q", e)
		}
		m[k] = v
	}
	return m, nil
}

// parseHeaders parses 'Name: value' arguments.
func parseHeaders(args []string) (map[string]string, error) {
	m := make(map[string]string, len(args))
	for _, e := range args {
		k, v, ok := strings.Cut(e, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected 'Name: value' header, got %q", e)
		}
		m[http.CanonicalHeaderKey(k)] = strings.TrimSpace(v)
	}
	return m, nil
}
