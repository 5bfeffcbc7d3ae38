// Package main is the entry point for ledgerdash (ldm).
// It loads configuration, connects the ledger gateway, mounts the home view
// and serves the web dashboard until interrupted.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ledgerdash.mini/ldm/internal/config"
	"ledgerdash.mini/ldm/internal/docs"
	"ledgerdash.mini/ldm/internal/ledgerapi"
	"ledgerdash.mini/ldm/internal/logger"
	"ledgerdash.mini/ldm/internal/navigator"
	"ledgerdash.mini/ldm/internal/poller"
	"ledgerdash.mini/ldm/internal/types"
	"ledgerdash.mini/ldm/internal/views"
	"ledgerdash.mini/ldm/internal/web"
)

var (
	configPath   string
	apiURL       string
	port         int
	pollInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "ldm",
	Short:   "ledgerdash web client for a blockchain ledger API",
	Long:    "Serves a dashboard for a ledger node: wallet, chain explorer, transaction composer and the pending pool.",
	Version: types.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv(config.EnvConfigFile), "Path to a YAML config file")
	rootCmd.Flags().StringVar(&apiURL, "api-url", "", "Ledger API root URL (overrides config)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "Dashboard port (overrides config)")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Transaction pool poll interval (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("ldm: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("poll-interval") && pollInterval > 0 {
		cfg.PollInterval = pollInterval
	}

	logCloser := logger.SetupProcessLog(logger.FileOptions{
		Path:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
		MaxAgeDay: cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()

	log.Printf("ledgerdash %s starting...", types.Version)

	if err := ensurePortAvailable(cfg.Port); err != nil {
		return fmt.Errorf("port %d unavailable: %w", cfg.Port, err)
	}

	// Notifications shown in the status bar
	notes := logger.New(100)

	client := ledgerapi.NewClient(cfg.APIURL, cfg.RequestTimeout)
	log.Printf("Ledger API: %s", client.BaseURL())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := navigator.NewRouter(ctx, views.Factories(client, notes, poller.New(cfg.PollInterval)))
	defer router.Close()
	router.Push(navigator.RouteHome)

	server, err := web.NewServer(router, notes, docs.NewService(), web.Options{
		Port:         cfg.Port,
		APIURL:       client.BaseURL(),
		PollInterval: cfg.PollInterval,
		RenderWait:   cfg.RenderWait,
	})
	if err != nil {
		return fmt.Errorf("initializing web server: %w", err)
	}
	serverErrors := server.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("web server exited: %w", err)
		}
		return nil
	case <-sigChan:
	}

	log.Println("Shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: web server shutdown: %v", err)
	}
	return nil
}

func ensurePortAvailable(port int) error {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return listener.Close()
}
