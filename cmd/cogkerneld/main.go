// Command cogkerneld runs the cognitive kernel core as a long-lived daemon:
// a reflex/deep-think ingest loop, an energy metabolism and sleep scheduler,
// a holographic file store, a plain HTTP surface, and an optional MCP tool
// surface — all backed by one shared KernelLoop.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/hfs"
	"github.com/denizumutdereli/cogkernel/pkg/kernel"
	"github.com/denizumutdereli/cogkernel/pkg/mcpserver"
	"github.com/denizumutdereli/cogkernel/pkg/memory"
	"github.com/denizumutdereli/cogkernel/pkg/metabolism"
	"github.com/denizumutdereli/cogkernel/pkg/scheduler"
	"github.com/denizumutdereli/cogkernel/pkg/substrate"
)

func main() {
	var cliOverrides kernel.CLIOverrides
	var configPathFlag string

	rootCmd := &cobra.Command{
		Use:   "cogkerneld",
		Short: "cogkerneld - reflex/deep-think cognitive kernel core",
		Long:  "A hyperdimensional-computing cognitive routing daemon with reflex and deep-think ingest paths, energy metabolism, a sleep scheduler, and a holographic file store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), configPathFlag, &cliOverrides)
		},
		SilenceUsage: true,
	}

	f := rootCmd.Flags()
	f.StringVarP(&configPathFlag, "config", "f", "", "Path to YAML config file (overrides COGKERNEL_CONFIG env)")
	cliOverrides.HTTPAddr = f.String("http-addr", "", "HTTP listen address")
	cliOverrides.MaxCapacity = f.Float64("max-capacity", 0, "Metabolism max energy capacity")
	cliOverrides.FatigueRatio = f.Float64("fatigue-ratio", 0, "Fatigue threshold as a ratio of max capacity")
	cliOverrides.ZombieRatio = f.Float64("zombie-ratio", 0, "Zombie-mode threshold as a ratio of max capacity")
	cliOverrides.CacheCapacity = f.Int("cache-capacity", 0, "Working memory cache capacity")
	cliOverrides.HFSRootPath = f.String("hfs-root", "", "Holographic file store root directory")
	cliOverrides.MCPEnabled = f.Bool("mcp", false, "Enable the MCP tool surface")
	cliOverrides.MCPAddr = f.String("mcp-addr", "", "MCP listen address")
	cliOverrides.MCPAPIKey = f.String("mcp-api-key", "", "Shared API key for the MCP and HTTP surfaces")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(flags *pflag.FlagSet, configPathFlag string, cliOverrides *kernel.CLIOverrides) error {
	printBanner()

	configPath := configPathFlag
	if configPath == "" {
		configPath = os.Getenv("COGKERNEL_CONFIG")
	}

	cfg, err := kernel.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyExplicitFlags(flags, cfg, cliOverrides)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log.Printf("HTTP: %s", cfg.Server.HTTPAddr)
	log.Printf("HFS root: %s", cfg.HFS.RootPath)

	hdcSystem := hdc.NewSystem()

	wm := memory.New(cfg.Cache.Capacity)
	metab := metabolism.New(cfg.Metabolism.MaxCapacity, cfg.Metabolism.FatigueRatio, cfg.Metabolism.ZombieRatio, cfg.Metabolism.ZombieCritic)
	sched := scheduler.New(
		cfg.Scheduler.CriticalSleepThresholdPercent,
		cfg.Scheduler.MaxEntropyCapacity,
		cfg.Scheduler.OptimalConsolidationIntervalSeconds,
		cfg.Scheduler.IdleWindowSeconds,
		time.Now(),
	)
	sub := substrate.New(newCPUIDProbe())

	loop := kernel.New(hdcSystem, wm, metab, sched, sub, cfg.Encoding.K, cfg.Encoding.Stride, cfg.Encoding.MaxKmers,
		cfg.Encoding.DefaultDim, cfg.Encoding.MaxIterations, cfg.Encoding.MemorySnapshotSize)
	log.Println("kernel loop initialized")

	store := hfs.New(cfg.HFS.RootPath)
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize holographic file store: %w", err)
	}
	log.Println("holographic file store initialized")

	enc := newHFSEncoder(hdcSystem.Symbols, cfg.Encoding)
	backend := newKernelBackend(loop, store, enc)

	httpServer := NewServer(cfg, loop, store, enc)

	var mcpHandler *mcpHTTPServer
	if cfg.MCP.Enabled {
		handler, err := mcpserver.NewHandler(mcpserver.Config{
			APIKey:         cfg.MCP.APIKey,
			Stateless:      true,
			RateLimitRPS:   cfg.MCP.RateLimitRPS,
			RateLimitBurst: cfg.MCP.RateLimitBurst,
		}, backend)
		if err != nil {
			return fmt.Errorf("failed to build MCP handler: %w", err)
		}
		mcpHandler = newMCPHTTPServer(cfg.MCP.Addr, handler)
		go func() {
			if err := mcpHandler.Start(); err != nil {
				log.Printf("MCP server error: %v", err)
			}
		}()
		log.Printf("MCP tool surface listening on %s", cfg.MCP.Addr)
	} else {
		log.Println("MCP tool surface disabled (enable with --mcp or COGKERNEL_MCP_ENABLED=true)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	go runSubstratePoll(ctx, loop, cfg.Substrate.PollIntervalSeconds)

	log.Println("cogkerneld is ready!")
	log.Println("--------------------------------------------")

	waitForShutdown(ctx, cancel)

	log.Println("initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if mcpHandler != nil {
		if err := mcpHandler.Stop(shutdownCtx); err != nil {
			log.Printf("MCP shutdown error: %v", err)
		}
	}

	log.Println("cogkerneld shutdown complete")
	return nil
}

// runSubstratePoll periodically refreshes the substrate reading and checks
// for idle-consolidation opportunities between ingests, grounded in the
// teacher's pkg/lifecycle.Manager.StartMonitor ticker shape. Runs until ctx
// is cancelled.
func runSubstratePoll(ctx context.Context, loop *kernel.KernelLoop, intervalSeconds float64) {
	interval := time.Duration(intervalSeconds * float64(time.Second))
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			loop.RefreshSubstrate()
			loop.TryIdleSleep(now)
		}
	}
}

// applyExplicitFlags applies only the CLI flags explicitly set on the
// command line, leaving values resolved from YAML/env untouched otherwise.
func applyExplicitFlags(flags *pflag.FlagSet, cfg *kernel.Config, o *kernel.CLIOverrides) {
	overrides := kernel.CLIOverrides{}

	if flags.Changed("http-addr") {
		overrides.HTTPAddr = o.HTTPAddr
	}
	if flags.Changed("max-capacity") {
		overrides.MaxCapacity = o.MaxCapacity
	}
	if flags.Changed("fatigue-ratio") {
		overrides.FatigueRatio = o.FatigueRatio
	}
	if flags.Changed("zombie-ratio") {
		overrides.ZombieRatio = o.ZombieRatio
	}
	if flags.Changed("cache-capacity") {
		overrides.CacheCapacity = o.CacheCapacity
	}
	if flags.Changed("hfs-root") {
		overrides.HFSRootPath = o.HFSRootPath
	}
	if flags.Changed("mcp") {
		overrides.MCPEnabled = o.MCPEnabled
	}
	if flags.Changed("mcp-addr") {
		overrides.MCPAddr = o.MCPAddr
	}
	if flags.Changed("mcp-api-key") {
		overrides.MCPAPIKey = o.MCPAPIKey
	}

	cfg.ApplyCLIOverrides(&overrides)
}
