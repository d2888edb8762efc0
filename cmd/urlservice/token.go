package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored authorization token",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store a token",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			tok := strings.TrimSpace(args[0])
			if tok == "" {
				return fmt.Errorf("token is empty")
			}
			store, err := a.openTokens()
			if err != nil {
				return err
			}
			return store.SetToken(tok)
		}),
	})

	var reveal bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored token",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.openTokens()
			if err != nil {
				return err
			}
			tok, err := store.Token()
			if err != nil {
				return err
			}
			if tok == "" {
				return fmt.Errorf("no token stored in %s", a.conf.TokenDB)
			}
			if !reveal {
				tok = maskToken(tok)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		}),
	}
	show.Flags().BoolVar(&reveal, "reveal", false, "Print the whole token")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.openTokens()
			if err != nil {
				return err
			}
			return store.Clear()
		}),
	})

	return cmd
}

func maskToken(t string) string {
	if len(t) <= 8 {
		return strings.Repeat("*", len(t))
	}
	return t[:4] + strings.Repeat("*", len(t)-8) + t[len(t)-4:]
}
