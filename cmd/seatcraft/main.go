package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seatcraft/server/internal/chair"
	"github.com/seatcraft/server/internal/config"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/core/event"
	coresys "github.com/seatcraft/server/internal/core/system"
	"github.com/seatcraft/server/internal/data"
	"github.com/seatcraft/server/internal/handler"
	"github.com/seatcraft/server/internal/persist"
	"github.com/seatcraft/server/internal/scheduler"
	"github.com/seatcraft/server/internal/scripting"
	"github.com/seatcraft/server/internal/system"
	"github.com/seatcraft/server/internal/world"
	"github.com/seatcraft/server/internal/wrench"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              seatcraft  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       chairs & wrench sandbox host        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("SEATCRAFT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Data tables and scripts
	printSection("data")
	vocab := data.DefaultBlockVocabulary()
	if cfg.World.BlocksPath != "" {
		if vocab, err = data.LoadBlockVocabulary(cfg.World.BlocksPath); err != nil {
			return fmt.Errorf("block vocabulary: %w", err)
		}
	}
	printStat("breathable blocks", len(vocab.Breathable))
	printStat("breathable markers", len(vocab.BreathableMarkers))
	printStat("denied items", len(vocab.ItemDenylist))

	engine, err := scripting.NewEngine(cfg.World.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printOK("lua hooks loaded")
	fmt.Println()

	// 4. World
	bus := event.NewBus()
	ecsWorld := ecs.NewWorld()
	worldState := world.NewState(ecsWorld, bus, world.Options{
		Dimensions: cfg.World.Dimensions,
		InboxSize:  cfg.World.InboxSize,
		Placeable:  placeable(vocab.NonBlockItems),
	}, log)
	worldState.RegisterRideable(cfg.Chairs.SeatEntity, 1)
	sched := scheduler.New(log)

	// 5. Database (optional) and world contents
	printSection("world")
	var (
		repo     *persist.WorldRepo
		restored bool
	)
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("schema at version %d", version))

		repo = persist.NewWorldRepo(db)
		blocks, err := repo.LoadBlocks(ctx)
		if err != nil {
			return fmt.Errorf("load blocks: %w", err)
		}
		entities, err := repo.LoadEntities(ctx)
		if err != nil {
			return fmt.Errorf("load entities: %w", err)
		}
		nb, ne := persist.Restore(worldState, blocks, entities)
		restored = nb > 0
		printStat("blocks restored", nb)
		printStat("entities restored", ne)
	}

	spawn := mgl64.Vec3{0.5, 65, 0.5}
	if cfg.World.FixturePath != "" {
		fixture, err := data.LoadWorldFixture(cfg.World.FixturePath)
		if err != nil {
			return fmt.Errorf("world fixture: %w", err)
		}
		spawn = mgl64.Vec3{fixture.Spawn.X, fixture.Spawn.Y, fixture.Spawn.Z}
		if !restored {
			printStat("fixture blocks", seedWorld(worldState, fixture, repo != nil))
		}
	}
	printStat("dimensions", len(worldState.Dimensions()))
	fmt.Println()

	// 6. Add-ons
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	classifier := chair.NewClassifier(vocab.Breathable, vocab.BreathableMarkers)
	chairs := chair.NewManager(worldState, sched, cfg.Chairs, classifier, engine.SeatYaw, chair.NewMetrics(reg), log)
	gateway := chair.NewGateway(worldState, chairs, classifier, chair.GatewayRules{
		ItemDenylist:      vocab.ItemDenylist,
		ChairMarker:       vocab.ChairMarker,
		MaxVerticalOffset: cfg.Chairs.MaxVerticalOffset,
	}, log)
	chair.Install(bus, gateway, chairs)
	chairs.Sweep()
	log.Info("chairs loaded")

	tool := wrench.New(worldState, sched, cfg.Wrench, engine, reg, log)
	tool.Install(bus)
	log.Info("wrench loaded", zap.String("item", cfg.Wrench.Item))

	// 7. Systems
	deps := &handler.Deps{
		Config: cfg,
		Log:    log,
		World:  worldState,
		Sched:  sched,
		Chairs: chairs,
		Spawn:  spawn,
	}
	lines := make(chan string, 64)
	go readConsole(os.Stdin, lines)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(lines, os.Stdout, deps, cfg.Server.MaxCommandsPerTick, log))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(sched)
	runner.Register(system.NewRideSyncSystem(worldState))
	var persistSys *system.PersistenceSystem
	if repo != nil {
		persistSys = system.NewPersistenceSystem(worldState, repo, log, cfg.Database.SaveIntervalTicks)
		runner.Register(persistSys)
		deps.Save = persistSys.Save
	}
	runner.Register(system.NewCleanupSystem(ecsWorld, log))

	// 8. Metrics endpoint
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = serveMetrics(cfg.Metrics.BindAddress, reg, log)
	}

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("ready")
	if metricsSrv != nil {
		printReady(fmt.Sprintf("metrics on http://%s/metrics", cfg.Metrics.BindAddress))
	}
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Server.TickRate))
	printReady("type help for console commands")
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if persistSys != nil {
				if err := persistSys.Save(); err != nil {
					log.Error("final save failed", zap.Error(err))
				}
			}
			if metricsSrv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = metricsSrv.Shutdown(ctx)
				cancel()
			}
			log.Info("server stopped", zap.Uint64("ticks", runner.Ticks()))
			return nil
		}
	}
}

// placeable reports whether a held item places a block by default: anything
// whose id does not contain one of the non-block markers.
func placeable(nonBlock []string) func(string) bool {
	return func(item string) bool {
		item = strings.ToLower(item)
		for _, m := range nonBlock {
			if strings.Contains(item, m) {
				return false
			}
		}
		return true
	}
}

// seedWorld writes the fixture blocks into an empty world. When the world is
// persisted the blocks are marked dirty so the first save stores them.
func seedWorld(ws *world.State, f *data.WorldFixture, persisted bool) int {
	n := 0
	for _, b := range f.Blocks {
		p := world.Permutation{TypeID: b.Type, States: b.States}
		pos := cube.Pos{b.X, b.Y, b.Z}
		var ok bool
		if persisted {
			ok = ws.SetBlock(b.Dimension, pos, p)
		} else {
			ok = ws.LoadBlock(b.Dimension, pos, p)
		}
		if ok {
			n++
		}
	}
	return n
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// readConsole forwards stdin lines to the game loop until EOF.
func readConsole(f *os.File, lines chan<- string) {
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines <- sc.Text()
	}
	close(lines)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
