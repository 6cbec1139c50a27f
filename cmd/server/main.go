/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the bookstore POS ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, POS_* variables, flags)
  2. Initialize SQLite snapshot store
  3. Open the Book (load snapshot, follow store updates)
  4. Start the low-stock monitor
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr    HTTP listen address (overrides POS_ADDR)
  -db      SQLite database path (overrides POS_DB_PATH)
           Use ":memory:" for in-memory database
  -seed    Load a demo scenario into an empty store on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (POS_SHUTDOWN_TIMEOUT)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/pos.db"
  ./server -db=":memory:" -seed=bookstore
  POS_LOG_FORMAT=json POS_ALLOW_NEGATIVE_STOCK=false ./server
  POS_STOCK_CHECK_INTERVAL=0 ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ziyobook/pos-ledger/api"
	"github.com/ziyobook/pos-ledger/config"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	seed := flag.String("seed", "", "demo scenario to load into an empty store")
	flag.Parse()

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	engine := ledger.NewEngine(ledger.Options{AllowNegativeStock: cfg.AllowNegativeStock}, logger)
	book := ledger.NewBook(engine, store, logger)
	if err := book.Open(context.Background()); err != nil {
		return err
	}
	defer book.Close()

	if *seed != "" {
		if err := seedIfEmpty(context.Background(), book, *seed, logger); err != nil {
			return err
		}
	}

	monitor := api.NewStockMonitor(book, logger)
	monitor.CheckInterval = cfg.StockCheckInterval
	monitor.Enabled = cfg.StockCheckInterval > 0
	monitor.Start()
	defer monitor.Stop()

	handler := api.NewHandler(book, logger)
	handler.Monitor = monitor
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", *addr, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func seedIfEmpty(ctx context.Context, book *ledger.Book, scenario string, logger *slog.Logger) error {
	current := book.Snapshot()
	if len(current.Products) > 0 || len(current.Transactions) > 0 {
		logger.Info("store not empty, skipping seed", "scenario", scenario)
		return nil
	}
	snap, err := api.BuildScenario(scenario)
	if err != nil {
		return err
	}
	if err := book.Replace(ctx, snap); err != nil {
		return fmt.Errorf("seed %s: %w", scenario, err)
	}
	logger.Info("seeded demo scenario", "scenario", scenario)
	return nil
}
