package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"isyhub/internal/config"
	"isyhub/internal/core"
	"isyhub/internal/plugins"
	"isyhub/internal/router"
	"isyhub/internal/server"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "serve":
		serveMain(os.Args[2:])
	case "check-config":
		checkConfigMain(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func serveMain(args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := flags.String("config", config.DefaultPath, "Path to config.yaml")
	_ = flags.Parse(args)

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	active, err := activePlugins(cfg)
	if err != nil {
		log.Fatalf("plugins: %v", err)
	}

	metricsRegistry := core.MetricsRegistry(active)
	metricsRegistry.MustRegister(core.BuildInfo(version))

	if err := core.WriteDashboards(cfg.Core.DashboardDir, active); err != nil {
		log.Fatalf("write dashboards: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, p := range active {
		runner, ok := p.(core.Runner)
		if !ok {
			continue
		}
		go func(id string, r core.Runner) {
			if err := r.Run(ctx); err != nil {
				slog.Error("plugin runner exited", "plugin", id, "error", err)
			}
		}(p.ID(), runner)
	}

	registry := core.NewRegistry(active)
	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, router.New(registry, metricsRegistry, active))

	slog.Info("hub listening", "addr", cfg.Core.HTTPAddr, "plugins", len(active))
	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("http serve: %v", err)
	}
}

func checkConfigMain(args []string) {
	flags := flag.NewFlagSet("check-config", flag.ExitOnError)
	configPath := flags.String("config", config.DefaultPath, "Path to config.yaml")
	_ = flags.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	active, err := activePlugins(cfg)
	if err != nil {
		log.Fatalf("plugins: %v", err)
	}

	fmt.Printf("config ok: %d plugin(s)\n", len(active))
	for _, p := range active {
		status := string(p.Health())
		if msg := p.HealthMessage(); msg != "" {
			status += ": " + msg
		}
		fmt.Printf("  %s\t%s\n", p.ID(), status)
	}
}

// activePlugins instantiates configured plugins and applies the optional
// core.plugins allowlist.
func activePlugins(cfg *config.Config) ([]core.Plugin, error) {
	compiled := plugins.Compiled(cfg)
	enabled, allowAll := cfg.EnabledPlugins()

	if err := core.ValidateEnabledPlugins(compiled, enabled, allowAll); err != nil {
		return nil, err
	}
	active := core.FilterPlugins(compiled, enabled, allowAll)
	if err := core.ValidatePlugins(active); err != nil {
		return nil, err
	}
	return active, nil
}

func usage() {
	fmt.Println("isyhub <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  serve        [--config path]")
	fmt.Println("  check-config [--config path]")
}
