package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grzegorz-grzeda/stream-server/internal/logger"
	"github.com/grzegorz-grzeda/stream-server/pkg/config"
	"github.com/grzegorz-grzeda/stream-server/pkg/streamserver"
)

// echoHandler copies everything the client sends back to it, running
// until the client closes its side of the connection. It is the demo
// payload for the daemon; real deployments supply their own handler
// through the library.
func echoHandler(srv *streamserver.Server, conn *streamserver.Conn, handlerCtx any) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				logger.Debug("Echo write to %s failed: %v", conn.RemoteAddr(), werr)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				logger.Debug("Echo read from %s failed: %v", conn.RemoteAddr(), err)
			}
			return
		}
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	initConfig := flag.Bool("init-config", false, "Write a default config file and exit")
	force := flag.Bool("force", false, "Overwrite an existing config file with -init-config")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	port := flag.Int("port", 0, "TCP port override")
	flag.Parse()

	if *initConfig {
		path, err := runInitConfig(*configPath, *force)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command line flags override the config file
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger.SetLevel(cfg.Logging.Level)

	fmt.Println("Stream Server - TCP worker pool daemon")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up metrics (no-op when disabled)
	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics endpoint on port %d", metricsResult.Server.Port())
	}

	// Log server configuration
	logger.Info("Server configuration:")
	logger.Info("  Port: %d", cfg.Server.Port)
	logger.Info("  Pool size: %d", cfg.Server.PoolSize)
	if cfg.Server.MaxConnections > 0 {
		logger.Info("  Max connections: %d", cfg.Server.MaxConnections)
	} else {
		logger.Info("  Max connections: unlimited")
	}
	if cfg.Server.AcceptRate > 0 {
		logger.Info("  Accept rate: %d/s", cfg.Server.AcceptRate)
	}
	logger.Info("  Shutdown timeout: %v", cfg.Server.ShutdownTimeout)

	srv, err := streamserver.New(cfg.Server, echoHandler, nil, metricsResult.ServerMetrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", srv.Port())

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}

	if metricsResult.Server != nil {
		if err := metricsResult.Server.Stop(context.Background()); err != nil {
			logger.Warn("Metrics server shutdown error: %v", err)
		}
	}
}

// runInitConfig writes the default config to the given path, or to the
// default location when path is empty.
func runInitConfig(path string, force bool) (string, error) {
	if path == "" {
		return config.InitConfig(force)
	}
	if err := config.InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}
