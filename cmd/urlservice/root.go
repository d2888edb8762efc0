package main

import (
	"fmt"
	"time"

	api "github.com/bww/go-urlservice/v1"
	"github.com/bww/go-urlservice/v1/events"
	"github.com/bww/go-urlservice/v1/service"
	"github.com/bww/go-urlservice/v1/token"
	"github.com/bww/go-urlservice/v1/urls"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries state shared by commands once configuration is loaded
type app struct {
	conf   *Config
	log    *zap.Logger
	closed []func() error
}

func (a *app) close() {
	for _, f := range a.closed {
		if err := f(); err != nil {
			a.log.Warn("Could not release resource", zap.Error(err))
		}
	}
	a.closed = nil
	_ = a.log.Sync()
}

// run wraps a command so that resources it opens are released however it
// exits.
func (a *app) run(f func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return f(cmd, args)
	}
}

func (a *app) table() (*urls.Table, error) {
	return urls.Load(a.conf.URLsFile)
}

func (a *app) openTokens() (*token.Bolt, error) {
	b, err := token.OpenBolt(a.conf.TokenDB)
	if err != nil {
		return nil, err
	}
	a.closed = append(a.closed, b.Close)
	return b, nil
}

// tokens produces the token source for requests. A token in the configuration
// takes precedence over the token store.
func (a *app) tokens() (token.Source, error) {
	if a.conf.Token != "" {
		return token.Static(a.conf.Token), nil
	}
	return a.openTokens()
}

func (a *app) transport() (service.Transport, error) {
	switch a.conf.Transport {
	case "resty":
		c := resty.New().
			SetTimeout(a.conf.Timeout).
			SetDebug(a.conf.Debug).
			SetLogger(a.log.Sugar())
		return service.NewRestyTransport(c), nil
	default:
		c, err := api.New(
			api.WithTimeout(a.conf.Timeout),
			api.WithDebug(a.conf.Debug),
			api.WithLogger(a.log),
			api.WithObservers(events.NewObservers(events.NewLogger(a.log))),
		)
		if err != nil {
			return nil, err
		}
		return service.NewAPITransport(c), nil
	}
}

func (a *app) service() (*service.Service, error) {
	if a.conf.Host == "" {
		return nil, fmt.Errorf("no host configured; use --host or URLSERVICE_HOST")
	}
	tab, err := a.table()
	if err != nil {
		return nil, err
	}
	src, err := a.tokens()
	if err != nil {
		return nil, err
	}
	tsp, err := a.transport()
	if err != nil {
		return nil, err
	}
	return service.New(a.conf.Host, tab,
		service.WithTokens(src),
		service.WithAuthScheme(a.conf.AuthScheme),
		service.WithTransport(tsp),
		service.WithLogger(a.log),
	)
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	var file string

	root := &cobra.Command{
		Use:   "urlservice",
		Short: "Send requests to named API URLs",
		Long: `Send requests to an API using a table of named URL templates.

A URL table is a YAML file mapping names to path templates:

  getUser: /users/:id
  listUsers: /users

Examples:
  urlservice --host https://api.example.com get getUser -p id=42
  urlservice post createUser -d name=Alice --select id
  urlservice token set 0123456789abcdef`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, file)
			if err != nil {
				return err
			}
			a.conf = conf
			a.log = newLogger(conf.LogLevel, cmd.ErrOrStderr())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&file, "config", "", "Config file (YAML, JSON or TOML)")
	flags.String("host", "", "API host every URL is prefixed with")
	flags.String("urls", "./urls.yaml", "URL table file")
	flags.String("token-db", "./.urlservice/token.db", "Token store file")
	flags.String("auth-scheme", "Token", "Authorization scheme")
	flags.String("transport", "api", "HTTP transport: api or resty")
	flags.Duration("timeout", 30*time.Second, "Request timeout")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.Bool("debug", false, "Dump requests and responses to the log")

	root.AddCommand(
		newURLsCmd(a),
		newResolveCmd(a),
		newRequestCmd(a, "get"),
		newRequestCmd(a, "post"),
		newRequestCmd(a, "delete"),
		newTokenCmd(a),
	)

	return root
}
