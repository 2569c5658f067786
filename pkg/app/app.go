package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cafestock/pkg/httpapi"
	"cafestock/pkg/inventory"
	"cafestock/pkg/order"
	"cafestock/pkg/report"
	"cafestock/pkg/storage"
	"cafestock/pkg/version"
)

// Run parses args and executes the matching command; with no subcommand it serves HTTP.
func Run(ctx context.Context, args []string, logger *log.Logger) error {
	return run(ctx, args, logger, os.Stdout)
}

func run(ctx context.Context, args []string, logger *log.Logger, stdout io.Writer) error {
	if logger == nil {
		logger = log.New(os.Stdout, "[cafestock] ", log.LstdFlags)
	}
	cfg, err := LoadConfig(nil)
	if err != nil {
		return err
	}
	root := newRootCommand(&cfg, logger)
	root.SetOut(stdout)
	root.SetErr(stdout)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(cfg *Config, logger *log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "cafestock",
		Short:         "Track café materials and flag what needs reordering",
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg, logger)
		},
	}
	root.SetVersionTemplate("cafestock {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.DBType, "db-type", cfg.DBType, "Storage backend: memory or sqlite")
	flags.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite file, or JSON snapshot file for the memory backend")
	flags.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "Catalog file (yaml, toml or json) used when storage is empty")

	serveFlags := func(cmd *cobra.Command) {
		cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "Port for the HTTP server")
		cmd.Flags().StringVar(&cfg.Lang, "lang", cfg.Lang, "Default page language: ja or en")
	}
	serveFlags(root)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stock page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg, logger)
		},
	}
	serveFlags(serveCmd)

	var withOrders bool
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the stock list, and optionally the reorder messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printReport(cmd.Context(), *cfg, withOrders, cmd.OutOrStdout(), logger)
		},
	}
	reportCmd.Flags().BoolVar(&withOrders, "orders", false, "Also print reorder messages per supplier")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the application version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cafestock %s\n", version.Version())
		},
	}

	root.AddCommand(serveCmd, reportCmd, versionCmd)
	return root
}

// stack is the storage plus the services built on it.
type stack struct {
	inventory *inventory.Service
	orders    *order.Service
	closers   []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStack opens storage, seeds it when empty and starts the services.
func openStack(ctx context.Context, cfg Config, logger *log.Logger) (*stack, error) {
	seed := inventory.DefaultSeed()
	if cfg.SeedFile != "" {
		loaded, err := inventory.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = loaded
	}

	db, cleanup, err := storage.Open(ctx, storage.Options{Type: cfg.DBType, Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("unable to open storage: %w", err)
	}
	st := &stack{closers: []func(){cleanup}}

	st.inventory = inventory.NewService(inventory.NewRepository(db))
	st.closers = append(st.closers, st.inventory.Close)
	items, err := st.inventory.Seed(ctx, seed.Items)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("unable to seed inventory: %w", err)
	}
	logger.Printf("inventory ready with %d materials (%s storage)", len(items), cfg.DBType)

	st.orders = order.NewService(order.NewRepository(db), st.inventory, seed.Suppliers)
	st.closers = append(st.closers, st.orders.Close)
	return st, nil
}

func serve(ctx context.Context, cfg Config, logger *log.Logger) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	lang, err := httpapi.ParseLang(cfg.Lang)
	if err != nil {
		return err
	}
	st, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := httpapi.New(st.inventory, st.orders, lang, logger)
	if err != nil {
		return fmt.Errorf("unable to build http server: %w", err)
	}

	addr := cfg.address()
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.Printf("Cafestock is running on %s", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func printReport(ctx context.Context, cfg Config, withOrders bool, w io.Writer, logger *log.Logger) error {
	st, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	items, err := st.inventory.List(ctx)
	if err != nil {
		return err
	}
	if err := report.Write(w, items); err != nil {
		return err
	}
	if !withOrders {
		return nil
	}
	drafts, err := st.orders.Drafts(ctx)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return report.WriteDrafts(w, drafts)
}

// address prefers the platform PORT variable over the configured port.
func (c Config) address() string {
	if c.PlatformPort != "" {
		return ":" + c.PlatformPort
	}
	return ":" + strconv.Itoa(c.Port)
}
