package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/beastreplay/internal/app"
	"github.com/bft-labs/beastreplay/internal/cliconfig"
	"github.com/bft-labs/beastreplay/internal/metrics"
	"github.com/bft-labs/beastreplay/pkg/log"
)

const helpDescription = `
Replay captured Mode-S Beast data with its original timing.

Each FILE is replayed in turn using the flags given before it, so flags act
as running state:

  beastreplay --radarcape a.bin --no-delay b.bin

replays a.bin in real time and then b.bin as fast as possible, both with
Radarcape timestamps. Use - to read standard input.

Replayed data goes to stdout; logs go to stderr. Defaults can be set in
$HOME/.beastreplay/config.toml or with BEASTREPLAY_* environment variables.
`

var exampleUsage = strings.TrimSpace(`
  beastreplay capture.bin | nc localhost 30004
  beastreplay --show --no-delay capture.bin
  beastreplay --radarcape --speed 4 day1.bin day2.bin
  beastreplay --follow --follow-idle 1m live.bin
`)

var errNoInput = errors.New("no input files (use - for standard input)")

// metricsShutdownTimeout bounds how long the metrics server may take to close.
const metricsShutdownTimeout = 5 * time.Second

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)

	root := &cobra.Command{
		Use:     "beastreplay [flags] FILE [[flags] FILE ...]",
		Short:   "Replay Mode-S Beast captures with original timing",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),

		// Flags are running state and are parsed in order by cliconfig.
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,

		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := cliconfig.Load(cliconfig.ConfigPathFromArgs(args))
			if err != nil {
				return err
			}
			inv, err := cliconfig.ParseArgs(args, base)
			if err != nil {
				return err
			}
			if inv.Help {
				return cmd.Help()
			}
			if inv.Version {
				fmt.Fprintln(cmd.OutOrStdout(), cmd.Version)
				return nil
			}
			if err := inv.Final.Validate(); err != nil {
				return err
			}
			if len(inv.Passes) == 0 {
				return errNoInput
			}

			level, err := log.ParseLevel(inv.Final.LogLevel)
			if err != nil {
				return err
			}
			logger = log.NewZerologAdapter(os.Stderr, level)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := []app.Option{app.WithLogger(logger)}
			if addr := inv.Final.MetricsAddr; addr != "" {
				reg := prometheus.NewRegistry()
				m := metrics.New(reg)
				shutdown, err := serveMetrics(addr, reg, logger)
				if err != nil {
					return err
				}
				defer shutdown()
				opts = append(opts, app.WithObserver(m), app.WithPassObserver(m))
			}

			_, err = app.New(opts...).Run(ctx, inv.Passes)
			if errors.Is(err, context.Canceled) {
				logger.Info("received signal, stopped")
			}
			return err
		},
	}

	// Only rendered by --help; parsing happens in RunE.
	helpCfg := cliconfig.DefaultConfig()
	var helpInv cliconfig.Invocation
	root.Flags().AddFlagSet(cliconfig.NewFlagSet(&helpCfg, &helpInv))

	if err := root.Execute(); err != nil {
		logger.Error("beastreplay", log.Err(err))
		os.Exit(1)
	}
}

// serveMetrics starts the prometheus endpoint and returns a function that
// stops it.
func serveMetrics(addr string, reg *prometheus.Registry, logger log.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", log.Err(err))
		}
	}()
	logger.Info("serving metrics", log.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
