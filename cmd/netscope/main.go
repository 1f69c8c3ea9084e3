package main

//	@title			NetScope API
//	@version		0.1.0
//	@description	Network monitoring dashboard API: snapshot, refresh, export, history and settings.
//	@BasePath		/api/v1

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/HerbHall/netscope/api/swagger"
	"github.com/HerbHall/netscope/internal/config"
	"github.com/HerbHall/netscope/internal/dashboard"
	"github.com/HerbHall/netscope/internal/event"
	"github.com/HerbHall/netscope/internal/history"
	"github.com/HerbHall/netscope/internal/integration"
	"github.com/HerbHall/netscope/internal/mqtt"
	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/provider"
	"github.com/HerbHall/netscope/internal/registry"
	"github.com/HerbHall/netscope/internal/server"
	"github.com/HerbHall/netscope/internal/settings"
	"github.com/HerbHall/netscope/internal/store"
	"github.com/HerbHall/netscope/internal/version"
	"github.com/HerbHall/netscope/internal/ws"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "export":
			os.Exit(runExport(os.Args[2:], os.Stdout, os.Stderr))
		case "version":
			fmt.Println(version.Info())
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("NetScope server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	dbPath, err := server.DatabasePath(viperCfg)
	if err != nil {
		logger.Fatal("failed to prepare data directory", zap.Error(err))
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		logger.Fatal("database version check failed", zap.Error(err))
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	bus := event.NewBus(logger.Named("event"))
	dispatcher := newDispatcher(viperCfg.GetString("notify.webhook.url"), cfg, bus, logger)

	reg := registry.New(logger.Named("registry"))
	network := provider.NewModule(
		provider.WithNotifier(dispatcher),
		provider.WithMetrics(prometheus.DefaultRegisterer),
	)
	modules := []plugin.Plugin{
		network,
		history.New(),
		mqtt.New(),
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		logger.Fatal("plugin validation failed", zap.Error(err))
	}

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg.ForPlugin(name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Plugins: reg,
		}
	}); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}
	prov := network.Provider()

	// Stored preferences override config before the first refresh.
	settingsRepo, err := settings.NewSQLiteRepository(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize settings repository", zap.Error(err))
	}
	applier := settings.Applier{Refresher: prov, Channels: dispatcher}
	prefs, err := settings.Load(ctx, settingsRepo)
	if err != nil {
		logger.Warn("failed to load settings, using defaults", zap.Error(err))
		prefs = settings.Defaults()
	}
	applier.Apply(prefs)
	settingsHandler := settings.NewHandler(settingsRepo, applier, logger.Named("settings"))

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	wsHandler := ws.NewHandler(prov, bus, logger.Named("ws"))

	plan, err := integration.Default()
	if err != nil {
		logger.Fatal("failed to load integration plan", zap.Error(err))
	}
	planHandler := integration.NewHandler(plan, clockwork.NewRealClock(), logger.Named("integration"))

	var srvCfg server.Config
	if err := viperCfg.UnmarshalKey("server", &srvCfg); err != nil {
		logger.Fatal("invalid server configuration", zap.Error(err))
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		if prov.Snapshot() == nil {
			return provider.ErrNoSnapshot
		}
		return db.DB().PingContext(ctx)
	})
	srv := server.New(srvCfg.Addr(), reg, logger, readyCheck,
		server.WithDevMode(srvCfg.DevMode),
		server.WithReadOnly(srvCfg.ReadOnly),
		server.WithRateLimit(srvCfg.RateRPS, srvCfg.Burst),
		server.WithDashboard(dashboard.Handler()),
		server.WithRoutes(settingsHandler, wsHandler, planHandler),
		server.WithMiddleware(provider.Middleware(prov)),
	)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("NetScope server ready", zap.String("addr", srvCfg.Addr()))
	fmt.Fprintf(os.Stderr, "\n  NetScope %s is ready!\n  Open http://localhost:%d in your browser.\n\n", version.Short(), srvCfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	wsHandler.Close()
	reg.StopAll(shutdownCtx)

	logger.Info("NetScope server stopped")
}

// newDispatcher routes toasts: log always, bus on the push channel, webhook
// on the email channel when a URL is configured.
func newDispatcher(webhookURL string, cfg *config.ViperConfig, bus plugin.EventBus, logger *zap.Logger) *notify.Dispatcher {
	d := notify.NewDispatcher(logger.Named("notify"))
	d.Add(notify.ChannelAlways, notify.LogSink{Logger: logger.Named("toast")})
	d.Add(notify.ChannelPush, notify.BusSink{Bus: bus, Source: "network"})
	if webhookURL != "" {
		var wc notify.WebhookConfig
		if err := cfg.Sub("notify.webhook").Unmarshal(&wc); err != nil {
			logger.Warn("invalid webhook configuration, webhook disabled", zap.Error(err))
			return d
		}
		d.Add(notify.ChannelEmail, notify.NewWebhookSink(wc))
		logger.Info("webhook notifications enabled", zap.String("component", "notify"))
	}
	return d
}
