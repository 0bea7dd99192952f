package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"terrain-streamer/internal/catalog"
	"terrain-streamer/internal/platform/config"
	"terrain-streamer/internal/platform/logger"
	"terrain-streamer/internal/terrain"
)

func main() {
	_ = config.Load()

	var (
		source  string
		dir     string
		logPath string
		seed    uint64
		speed   float64
		strict  bool
	)
	flag.StringVar(&source, "catalog", config.GetEnv("CATALOG_SOURCE", ""), "catalog source (path or go-getter URL); built-in catalog when empty")
	flag.StringVar(&dir, "catalog-dir", config.GetEnv("CATALOG_DIR", ".catalog"), "directory the catalog is fetched into")
	flag.StringVar(&logPath, "log", "preview.log", "log file")
	flag.Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "template selection seed")
	flag.Float64Var(&speed, "speed", 20, "camera speed in world units per second")
	flag.BoolVar(&strict, "strict", config.GetEnvBool("STRICT_INVARIANTS", false), "panic on invariant violations")
	flag.Parse()

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logger.NewWriter(logFile, config.GetEnv("LOG_LEVEL", "info"), "text")

	doc := catalog.Default()
	if source != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		doc, err = catalog.FetchAndLoad(ctx, source, dir)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
			os.Exit(1)
		}
	}
	set, err := doc.TemplateSet()
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}

	stream, err := terrain.NewStream(doc.Config(), set, &terrain.SegmentFactory{},
		terrain.WithLogger(log),
		terrain.WithSelector(terrain.NewRandomSelector(seed)),
		terrain.WithStrict(strict),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stream: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	log.Info("preview starting", "seed", seed, "templates", len(set.Templates), "speed", speed)
	NewViewer(screen, stream, speed, log).run()
	log.Info("preview stopped", "ticks", stream.Stats().Ticks, "spawned", stream.Stats().Spawned)
}
