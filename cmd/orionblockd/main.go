package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/e7canasta/orion-blockrt/config"
	"github.com/e7canasta/orion-blockrt/scheduler"
)

const defaultConfigPath = "config/graph.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to graph configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("starting orion-blockrt daemon", "config", *configPath, "debug", *debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	graph, err := buildGraph(cfg)
	if err != nil {
		slog.Error("failed to build graph", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- graph.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil {
			slog.Error("graph run failed", "error", err)
			os.Exit(1)
		}
		slog.Info("graph drained naturally")
	}

	slog.Info("orion-blockrt daemon stopped")
}

// buildGraph constructs and wires a scheduler.Graph from a loaded
// configuration.
func buildGraph(cfg *config.Config) (*scheduler.Graph, error) {
	graph := scheduler.NewGraph(cfg.DefaultBufferItems, nil)

	for _, b := range cfg.Blocks {
		blk, numIn, numOut, err := buildBlock(b)
		if err != nil {
			return nil, err
		}
		if err := graph.AddBlock(b.Name, blk, numIn, numOut); err != nil {
			return nil, err
		}
	}

	for _, conn := range cfg.Connections {
		if err := graph.Connect(conn.FromBlock, conn.FromOutput, conn.ToBlock, conn.ToInput, conn.History); err != nil {
			return nil, err
		}
	}

	return graph, nil
}
