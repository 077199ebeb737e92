// Package wire provides dependency injection for the GIMS application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/nursix/gims/internal/adapters/cache"
	cliadapter "github.com/nursix/gims/internal/adapters/cli"
	"github.com/nursix/gims/internal/adapters/notify"
	"github.com/nursix/gims/internal/adapters/persistence"
	"github.com/nursix/gims/internal/adapters/sqlite"
	"github.com/nursix/gims/internal/app"
	"github.com/nursix/gims/internal/config"
	"github.com/nursix/gims/internal/db"
	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/ports/secondary"
)

// Options carries the settings and optional overrides for NewServices.
// Nil overrides are replaced with the production adapters.
type Options struct {
	Config   *config.Config
	Notifier secondary.Notifier
	Cache    secondary.RegistryCache
	Clock    secondary.Clock
}

// Services bundles the application services built on one database.
type Services struct {
	Provider primary.ProviderService
	Station  primary.StationService
	Log      primary.LogService
}

// NewServices builds all repositories and services on database.
func NewServices(database *sql.DB, opts Options) *Services {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{TestStationsGroup: config.DefaultTestStationsGroup}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	registryCache := opts.Cache
	if registryCache == nil {
		registryCache = cache.NoopRegistryCache{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = persistence.SystemClock{}
	}

	// The log writer resolves organisations through its own repositories,
	// which must not log themselves.
	logRepo := sqlite.NewAuditLogRepository(database)
	logWriter := sqlite.NewLogWriterAdapter(logRepo,
		sqlite.NewCommissionRepository(database, nil),
		sqlite.NewSiteRepository(database, nil),
		sqlite.NewStaffRepository(database, nil),
	)

	orgRepo := sqlite.NewOrganisationRepository(database, logWriter)
	verificationRepo := sqlite.NewVerificationRepository(database, logWriter)
	commissionRepo := sqlite.NewCommissionRepository(database, logWriter)
	staffRepo := sqlite.NewStaffRepository(database, logWriter)
	siteRepo := sqlite.NewSiteRepository(database, logWriter)
	approvalRepo := sqlite.NewSiteApprovalRepository(database, logWriter)
	contacts := sqlite.NewContactDirectory(database)
	texts := sqlite.NewRequirementTexts(database)
	identity := persistence.NewContextIdentityProvider()

	station := app.NewStationService(siteRepo, approvalRepo, commissionRepo, identity,
		notifier, contacts, texts, registryCache, clock,
		app.StationConfig{BaseURL: cfg.BaseURL},
	)
	provider := app.NewProviderService(orgRepo, verificationRepo, commissionRepo, staffRepo,
		identity, station, notifier, contacts, clock,
		app.ProviderConfig{TestStationsGroup: cfg.TestStationsGroup},
	)

	return &Services{
		Provider: provider,
		Station:  station,
		Log:      app.NewLogService(logRepo),
	}
}

var (
	envFile  = ".env"
	cfg      *config.Config
	services *Services
	closers  []func() error
	once     sync.Once
)

// SetEnvFile sets the .env file read on initialization. It has no
// effect once services are initialized.
func SetEnvFile(path string) {
	envFile = path
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// ProviderService returns the singleton ProviderService instance.
func ProviderService() primary.ProviderService {
	once.Do(initServices)
	return services.Provider
}

// StationService returns the singleton StationService instance.
func StationService() primary.StationService {
	once.Do(initServices)
	return services.Station
}

// LogService returns the singleton LogService instance.
func LogService() primary.LogService {
	once.Do(initServices)
	return services.Log
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db.SetPath(cfg.DBPath)
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	closers = append(closers, db.Close)

	services = NewServices(database, Options{
		Config:   cfg,
		Notifier: dialNotifier(cfg),
		Cache:    connectCache(cfg),
	})
}

// dialNotifier connects to the broker when one is configured. Without a
// broker, notifications are only logged.
func dialNotifier(cfg *config.Config) secondary.Notifier {
	if cfg.AMQPURL == "" {
		return notify.LogNotifier{}
	}
	n, err := notify.Dial(cfg.AMQPURL, cfg.NotifyQueue)
	if err != nil {
		slog.Warn("notifications disabled", "error", err)
		return notify.LogNotifier{}
	}
	closers = append(closers, n.Close)
	return n
}

func connectCache(cfg *config.Config) secondary.RegistryCache {
	if cfg.RedisAddr == "" {
		return cache.NoopRegistryCache{}
	}
	client, err := cache.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("registry cache disabled", "error", err)
		return cache.NoopRegistryCache{}
	}
	closers = append(closers, client.Close)
	return cache.NewRegistryCache(client, cfg.RegistryTTL)
}

// Close releases the broker, cache and database connections.
func Close() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	closers = nil
}

// ProviderAdapter returns a new ProviderAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ProviderAdapter() *cliadapter.ProviderAdapter {
	return ProviderAdapterWithOutput(os.Stdout)
}

// ProviderAdapterWithOutput returns a new ProviderAdapter writing to the given output.
func ProviderAdapterWithOutput(out io.Writer) *cliadapter.ProviderAdapter {
	once.Do(initServices)
	return cliadapter.NewProviderAdapter(services.Provider, out)
}

// StationAdapter returns a new StationAdapter writing to stdout.
func StationAdapter() *cliadapter.StationAdapter {
	return StationAdapterWithOutput(os.Stdout)
}

// StationAdapterWithOutput returns a new StationAdapter writing to the given output.
func StationAdapterWithOutput(out io.Writer) *cliadapter.StationAdapter {
	once.Do(initServices)
	return cliadapter.NewStationAdapter(services.Station, out)
}
