// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cloudmeter/cloudmeter/adapters/clock"
	"github.com/cloudmeter/cloudmeter/adapters/hasher"
	cmhttp "github.com/cloudmeter/cloudmeter/adapters/http"
	"github.com/cloudmeter/cloudmeter/adapters/idgen"
	"github.com/cloudmeter/cloudmeter/adapters/memory"
	"github.com/cloudmeter/cloudmeter/adapters/metrics"
	"github.com/cloudmeter/cloudmeter/adapters/random"
	"github.com/cloudmeter/cloudmeter/adapters/sqlite"
	"github.com/cloudmeter/cloudmeter/app"
	"github.com/cloudmeter/cloudmeter/config"
	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/ports"
)

// App represents the wired application.
type App struct {
	Logger  zerolog.Logger
	Config  *config.Config
	Holder  *config.Holder
	DB      *sqlite.DB
	Metrics *metrics.Collector

	// Stores
	Accounts   ports.AccountStore
	Instances  ports.InstanceStore
	Events     ports.EventStore
	TokenStore ports.TokenStore

	// Services
	Reports *app.ReportService
	Meter   *app.MeterService
	Tokens  *app.TokenService

	HTTPServer *http.Server
}

// New creates and wires the application from a loaded configuration.
func New(cfg *config.Config) (*App, error) {
	return build(cfg, nil, prometheus.DefaultRegisterer)
}

// NewWithHotReload loads configuration from a file and keeps watching it.
// Only logging-level changes take effect without a restart.
func NewWithHotReload(path string) (*App, error) {
	bootLogger := setupLogger(config.Default())
	holder, err := config.NewHolder(path, bootLogger)
	if err != nil {
		return nil, err
	}
	a, err := build(holder.Get(), holder, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	if err := holder.WatchFile(); err != nil {
		return nil, err
	}
	holder.WatchSignals()
	return a, nil
}

// NewForTest wires the application on the memory driver with an isolated
// metrics registry.
func NewForTest(cfg *config.Config) (*App, error) {
	return build(cfg, nil, prometheus.NewRegistry())
}

func build(cfg *config.Config, holder *config.Holder, reg prometheus.Registerer) (*App, error) {
	logger := setupLogger(cfg)
	logger.Info().Str("driver", cfg.Database.Driver).Msg("initializing cloudmeter")

	a := &App{
		Logger: logger,
		Config: cfg,
		Holder: holder,
	}

	if holder != nil {
		holder.OnChange(func(newCfg *config.Config) {
			if a.Metrics != nil {
				a.Metrics.ConfigReloads.Inc()
			}
			zerolog.SetGlobalLevel(parseLevel(newCfg.Logging.Level))
		})
		holder.OnError(func(error) {
			if a.Metrics != nil {
				a.Metrics.ConfigReloadErrors.Inc()
			}
		})
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewWith(reg)
	}

	if err := a.initStores(cfg); err != nil {
		return nil, err
	}

	tags := make([]cloud.Tag, 0, len(cfg.Reporting.Tags))
	for _, t := range cfg.Reporting.Tags {
		tags = append(tags, cloud.Tag(t))
	}

	clk := clock.Real{}
	ids := idgen.UUID{}

	a.Reports = app.NewReportService(a.Accounts, a.Instances, a.Events, tags, logger)
	if a.Metrics != nil {
		a.Reports.SetMetrics(a.Metrics)
	}
	a.Meter = app.NewMeterService(a.Events, ids, clk, logger)
	a.Tokens = app.NewTokenService(
		a.TokenStore,
		hasher.NewBcrypt(cfg.Auth.BcryptCost),
		ids,
		random.Real{},
		clk,
		cfg.Auth.TokenPrefix,
		logger,
	)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	handler := cmhttp.NewHandler(a.Reports, a.Meter, a.Tokens, clk, a.Metrics, logger, cmhttp.Config{
		AuthEnabled:       cfg.Auth.Enabled,
		MetricsPath:       metricsPath,
		DefaultWindowDays: cfg.Reporting.DefaultWindowDays,
	})

	a.HTTPServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

func (a *App) initStores(cfg *config.Config) error {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate database: %w", err)
		}
		a.DB = db
		a.Accounts = sqlite.NewAccountStore(db)
		a.Instances = sqlite.NewInstanceStore(db)
		a.Events = sqlite.NewEventStore(db)
		a.TokenStore = sqlite.NewTokenStore(db)

	case "memory":
		accounts := memory.NewAccountStore()
		a.Accounts = accounts
		a.Instances = memory.NewInstanceStore(accounts)
		a.Events = memory.NewEventStore()
		a.TokenStore = memory.NewTokenStore()

	default:
		return fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
	return nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return a.Close()
}

// Close releases resources.
func (a *App) Close() error {
	if a.Holder != nil {
		a.Holder.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Logging.Level))

	if cfg.Logging.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
