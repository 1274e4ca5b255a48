package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/fileserver/internal/config"
	"github.com/Brownie44l1/fileserver/internal/fileserver"
	"github.com/Brownie44l1/fileserver/internal/server"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// options holds the command line flags. A flag only overrides the config
// file when it was given explicitly.
type options struct {
	configPath    string
	host          string
	port          int
	root          string
	workers       int
	queue         int
	noListing     bool
	noAttachments bool
	normalize     bool
	logLevel      string
	noColor       bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "fileserver",
		Short:        "Serve a directory over HTTP/1.1, one request per connection",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	defaults := config.Default()
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	flags.StringVar(&opts.host, "host", defaults.Host, "IPv4 address to listen on")
	flags.IntVarP(&opts.port, "port", "p", defaults.Port, "port to listen on")
	flags.StringVarP(&opts.root, "root", "r", defaults.Root, "directory to serve")
	flags.IntVar(&opts.workers, "workers", defaults.MaxWorkers, "worker pool size, 0 for one goroutine per connection")
	flags.IntVar(&opts.queue, "queue", defaults.QueueSize, "connections that may wait for a worker")
	flags.BoolVar(&opts.noListing, "no-listing", false, "answer 404 for directories instead of listing them")
	flags.BoolVar(&opts.noAttachments, "no-attachments", false, "never send Content-Disposition: attachment")
	flags.BoolVar(&opts.normalize, "normalize-unicode", false, "normalize request paths to NFC")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "debug, info, warn or error")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	root.AddCommand(serve, newResolveCommand(opts))
	return root
}

// loadConfig merges defaults, the config file and explicit flags.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if flags.Changed("root") {
		cfg.Root = opts.root
	}
	if flags.Changed("workers") {
		cfg.MaxWorkers = opts.workers
	}
	if flags.Changed("queue") {
		cfg.QueueSize = opts.queue
	}
	if flags.Changed("no-listing") {
		cfg.DirectoryListing = !opts.noListing
	}
	if flags.Changed("no-attachments") {
		cfg.AttachmentHeader = !opts.noAttachments
	}
	if flags.Changed("normalize-unicode") {
		cfg.NormalizeUnicode = opts.normalize
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("no-color") {
		cfg.NoColor = opts.noColor
	}

	if cfg.NoColor {
		color.NoColor = true
	}
	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := server.NewLogger(cmd.OutOrStdout(), cfg.Level(), !color.NoColor)

	h, err := fileserver.New(cfg.FileserverOptions())
	if err != nil {
		return err
	}

	srv := server.New(cfg.ServerConfig(), h)
	srv.Logger = logger
	srv.Use(
		server.RecoveryMiddleware(logger, srv.Builder(), srv.Metrics()),
		server.LoggingMiddleware(logger),
	)

	ln, err := srv.Listen()
	if err != nil {
		return err
	}
	printBanner(cmd.OutOrStdout(), ln.Addr(), h.Root(), cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	stop()

	logger.Info("shutting down", server.Field{Key: "timeout", Value: cfg.ShutdownTimeout})

	shutdownCtx := context.Background()
	if cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", server.Field{Key: "error", Value: err})
	}
	if err := <-errc; err != nil && !errors.Is(err, server.ErrServerClosed) {
		return err
	}

	printStats(cmd.OutOrStdout(), srv.Stats())
	return nil
}

func printBanner(w io.Writer, addr net.Addr, root string, cfg config.Config) {
	title := color.New(color.FgGreen, color.Bold)
	label := color.New(color.FgHiBlack)

	title.Fprintf(w, "fileserver listening on http://%s\n", addr)
	fmt.Fprintf(w, "  %s %s\n", label.Sprint("root:     "), root)
	fmt.Fprintf(w, "  %s %t\n", label.Sprint("listing:  "), cfg.DirectoryListing)
	fmt.Fprintf(w, "  %s %t\n", label.Sprint("downloads:"), cfg.AttachmentHeader)
	if cfg.MaxWorkers > 0 {
		fmt.Fprintf(w, "  %s %d (queue %d)\n", label.Sprint("workers:  "), cfg.MaxWorkers, cfg.QueueSize)
	} else {
		fmt.Fprintf(w, "  %s unbounded\n", label.Sprint("workers:  "))
	}
}

func printStats(w io.Writer, stats server.MetricsSnapshot) {
	color.New(color.Bold).Fprintln(w, "Final stats:")
	fmt.Fprintf(w, "  Total requests:    %d\n", stats.RequestsTotal)
	fmt.Fprintf(w, "  Client errors:     %d\n", stats.Errors4xx)
	fmt.Fprintf(w, "  Server errors:     %d\n", stats.Errors5xx)
	fmt.Fprintf(w, "  Panics recovered:  %d\n", stats.PanicsRecovered)
	fmt.Fprintf(w, "  Queue saturations: %d\n", stats.QueueSaturated)
	fmt.Fprintf(w, "  Average latency:   %s\n", stats.AverageLatency)
}
