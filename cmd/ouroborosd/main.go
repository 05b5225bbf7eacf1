package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ouroboros/pkg/config"
	"ouroboros/pkg/logging"
	"ouroboros/pkg/repl"
	"ouroboros/pkg/ringstore"
	"ouroboros/pkg/session"
	"ouroboros/pkg/sockhost"
)

var (
	cfgFile     string
	socketPath  string
	capacity    int
	recordSize  int
	interactive bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ouroborosd",
		Short:        "Serve a fixed-capacity overwrite ring of text records over a unix socket",
		RunE:         run,
		SilenceUsage: true,
	}
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML)")
	flags.StringVar(&socketPath, "socket", "", "unix socket path (overrides config)")
	flags.IntVar(&capacity, "capacity", 0, "ring slot count (overrides config)")
	flags.IntVar(&recordSize, "record-size", 0, "slot size in bytes (overrides config)")
	flags.BoolVar(&interactive, "interactive", false, "run the diagnostics REPL on stdin")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.Socket.Path = socketPath
	}
	if capacity > 0 {
		cfg.Capacity = capacity
	}
	if recordSize > 0 {
		cfg.RecordSize = recordSize
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := ringstore.New(cfg.Capacity, cfg.RecordSize)
	if err != nil {
		return err
	}
	mode, err := cfg.Socket.FileMode()
	if err != nil {
		return err
	}

	srv := sockhost.New(session.NewBroker(store), logger, sockhost.Options{
		Path:    cfg.Socket.Path,
		Mode:    mode,
		Workers: cfg.Workers,
	})
	if err := srv.Listen(); err != nil {
		return err
	}
	logger.Info("ring host up", "capacity", store.Cap(), "record_size", cfg.RecordSize)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	if interactive {
		// Diagnostics REPL on stdin; EOF ends the daemon.
		repl.ForStore(store).Run(os.Stdin, os.Stdout)
	} else {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sig:
			logger.Info("signal received", "signal", s.String())
		case err := <-serveErr:
			if err != nil {
				return err
			}
		}
	}

	if err := srv.Close(); err != nil {
		logger.Warn("close failed", "err", err)
	}
	st := store.Stats()
	logger.Info("ring host down",
		"inserted", st.Inserted, "evicted", st.Evicted, "consumed", st.Consumed, "live", store.Len())
	return nil
}
