package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/ussm/internal/client"
	"github.com/MrSnakeDoc/ussm/internal/logger"
	"github.com/MrSnakeDoc/ussm/internal/reconcile"
	"github.com/MrSnakeDoc/ussm/internal/version"
)

type options struct {
	server   string
	username string
	password string
	refresh  time.Duration
	timeout  time.Duration
	search   string
	status   string
	typ      string
	showAll  bool
	once     bool
	noColor  bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "ussm-watch",
		Short:         "Live service status dashboard in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.password == "" {
				opts.password = os.Getenv("USSM_PASSWORD")
			}
			if opts.username == "" || opts.password == "" {
				return errors.New("--username and a password (flag or USSM_PASSWORD) are required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.server, "server", "s", envOr("USSM_SERVER", "http://localhost:8080/api"), "API base URL")
	f.StringVarP(&opts.username, "username", "u", os.Getenv("USSM_USERNAME"), "account to sign in with")
	f.StringVar(&opts.password, "password", "", "password (prefer USSM_PASSWORD)")
	f.DurationVar(&opts.refresh, "refresh", client.DefaultRefresh, "catalog refresh period")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	f.StringVar(&opts.search, "search", "", "initial name filter")
	f.StringVar(&opts.status, "status", "", "initial status filter")
	f.StringVar(&opts.typ, "type", "", "initial type filter (Internal or External)")
	f.BoolVar(&opts.showAll, "show-all", false, "show the whole catalog instead of favourites")
	f.BoolVar(&opts.once, "once", false, "print the first view and exit")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colours")
	f.StringVar(&opts.logLevel, "log-level", "warn", "client log level")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ussm-watch", version.String())
		},
	})
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func watch(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	log := logger.New(logger.Options{Level: opts.logLevel, Pretty: true})
	defer func() { _ = log.Sync() }()

	api, err := client.NewHTTPClient(opts.server, opts.timeout)
	if err != nil {
		return err
	}
	id, err := api.Login(ctx, opts.username, opts.password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	tty := isTerminal(out)
	screen := newScreen(out, tty && !opts.noColor, tty && !opts.once)
	screen.header = fmt.Sprintf("%s (%s)", id.Username, id.Role)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	views := make(chan client.View, 1)
	loop := client.NewLoop(api, id.Session(), log, client.Options{
		Refresh: opts.refresh,
		Render: func(v client.View) {
			screen.Render(v)
			if opts.once {
				select {
				case views <- v:
				default:
				}
			}
		},
		Notify:  screen.Notify,
		Filters: reconcile.Filters{
			Search:  opts.search,
			Status:  opts.status,
			Type:    opts.typ,
			ShowAll: opts.showAll,
		},
	})

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	if opts.once {
		select {
		case <-views:
		case <-ctx.Done():
		}
		cancel()
		return <-done
	}

	go readCommands(ctx, bufio.NewScanner(in), loop, screen, cancel)
	return <-done
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
