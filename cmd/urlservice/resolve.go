package main

import (
	"fmt"
	"strings"

	"github.com/bww/go-urlservice/v1/urls"
	"github.com/spf13/cobra"
)

func newURLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "urls",
		Short: "List the named URLs in the table",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			tab, err := a.table()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, k := range tab.Keys() {
				tmpl, _ := tab.Template(k)
				params, err := tab.Params(k)
				if err != nil {
					return err
				}
				if len(params) > 0 {
					fmt.Fprintf(out, "%s\t%s\t(%s)\n", k, tmpl, strings.Join(params, ", "))
				} else {
					fmt.Fprintf(out, "%s\t%s\n", k, tmpl)
				}
			}
			return nil
		}),
	}
}

func newResolveCmd(a *app) *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "resolve <key>",
		Short: "Print the absolute URL for a named URL",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			tab, err := a.table()
			if err != nil {
				return err
			}
			p, err := parsePairs(params)
			if err != nil {
				return fmt.Errorf("params: %w", err)
			}
			u, err := urls.NewResolver(a.conf.Host, tab).Resolve(args[0], p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
			return err
		}),
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "URL parameter as name=value (repeatable)")
	return cmd
}
