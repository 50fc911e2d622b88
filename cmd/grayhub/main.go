// Gray Logic Hub
//
// grayhub is the hub-side communication backbone: it bootstraps trust with
// the pairing/identity service, opens the durable coordinator queues and
// runs the in-process broker that links device adapters to them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	_ "github.com/nerrad567/gray-logic-hub/migrations"

	"github.com/nerrad567/gray-logic-hub/internal/api"
	"github.com/nerrad567/gray-logic-hub/internal/bootstrap"
	"github.com/nerrad567/gray-logic-hub/internal/credentials"
	"github.com/nerrad567/gray-logic-hub/internal/devconfig"
	"github.com/nerrad567/gray-logic-hub/internal/dispatch"
	"github.com/nerrad567/gray-logic-hub/internal/hub"
	"github.com/nerrad567/gray-logic-hub/internal/identity"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-hub/internal/relay"
	"github.com/nerrad567/gray-logic-hub/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// options are the command-line flags.
type options struct {
	configPath  string
	envFile     string
	deviceID    string
	showVersion bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("grayhub %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses args into options. GRAYHUB_CONFIG supplies the config
// path when --config is not given.
func parseFlags(args []string, output io.Writer) (options, error) {
	fs := pflag.NewFlagSet("grayhub", pflag.ContinueOnError)
	fs.SetOutput(output)

	var opts options
	fs.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the YAML configuration file")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration (missing is fine)")
	fs.StringVar(&opts.deviceID, "device-id", "", "device identifier (overrides device.id)")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if !fs.Changed("config") {
		if path := os.Getenv("GRAYHUB_CONFIG"); path != "" {
			opts.configPath = path
		}
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, opts options) error {
	log := logging.Default()
	log.Info("starting Gray Logic Hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading env file %s: %w", opts.envFile, err)
		}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", opts.configPath, "level", cfg.Logging.Level)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	applied, err := db.AppliedCount(ctx)
	if err != nil {
		return fmt.Errorf("reading migration state: %w", err)
	}
	log.Info("database ready", "path", db.Path(), "migrations", applied)

	records := store.New(db.DB)
	creds := credentials.NewStore(records)
	if n, countErr := records.Count(ctx); countErr == nil {
		log.Debug("record store opened", "records", n)
	}

	deviceID, err := resolveDeviceID(ctx, opts.deviceID, cfg.Device.ID, creds)
	if err != nil {
		return fmt.Errorf("resolving device id: %w", err)
	}
	log = log.With("device_id", deviceID)
	log.Info("device identity resolved")

	// Bootstrap is a barrier: nothing opens the transport until it returns.
	auth := bootstrap.New(deviceID, identity.New(cfg.Identity.URL, cfg.GetIdentityTimeout()), creds)
	auth.SetLogger(log)
	auth.SetRetry(cfg.Bootstrap.Retry.Attempts, cfg.Bootstrap.Retry.Delay)

	result := auth.Run(ctx)
	if result.State != bootstrap.Authenticated {
		if cfg.Bootstrap.DegradedPolicy == config.DegradedAbort {
			return fmt.Errorf("bootstrap: %w", result.Err)
		}
		log.Warn("continuing in degraded state", "error", result.Err)
	} else {
		log.Info("bootstrap complete", "state", result.State.String())
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	app := hub.New()
	app.SetLogger(log)
	app.Broker.SetLogger(log)
	app.Procedures.SetLogger(log)

	dispatcher := newDispatcher(cfg, deviceID, log)
	if influxClient != nil {
		dispatcher.SetRecorder(dispatch.NewPointRecorder(influxClient, deviceID))
	}

	rel := relay.New(app.Broker, dispatcher)
	rel.SetLogger(log)
	dispatcher.OnCommand(rel.HandleCommand)
	dispatcher.OnIdentityCommand(rel.HandleIdentityCommand)

	configServer := devconfig.NewServer(devconfig.NewSQLiteRepository(db.DB), app.Procedures, app.Broker)
	configServer.SetLogger(log)

	checks := map[string]api.HealthChecker{
		"database":  db,
		"transport": dispatcher,
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}

	apiServer, err := api.New(api.Deps{
		Config: cfg.API,
		Logger: log,
		Bus:    app.Broker,
		Status: func(ctx context.Context) api.Status {
			paired, pairedErr := creds.Paired(ctx)
			if pairedErr != nil {
				log.Warn("reading pairing state", "error", pairedErr)
			}
			return api.Status{
				Bootstrap:  auth.State().String(),
				Paired:     paired,
				Dispatcher: dispatcher.Running(),
			}
		},
		Checks:  checks,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	app.Add(
		hub.AdapterFunc{
			AdapterName: "dispatcher",
			StartFunc: func(ctx context.Context) error {
				return dispatcher.Start(ctx, result.Broker)
			},
			StopFunc: dispatcher.Stop,
		},
		configServer,
		rel,
		apiServer,
	)

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("starting hub: %w", err)
	}
	defer func() {
		log.Info("stopping hub")
		if stopErr := app.Stop(); stopErr != nil {
			log.Error("error stopping hub", "error", stopErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"outbound_queue", dispatcher.Queues().Outbound.Name,
		"inbound_queue", dispatcher.Queues().Inbound.Name,
		"api", apiServer.Addr(),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse: hub (adapters then core), InfluxDB,
	// database.
	return nil
}

// resolveDeviceID picks the device identifier: the flag, then the
// configuration, then the persisted identity. When none exists a new UUID
// is generated and persisted so queue names survive restarts. The chosen id
// must be usable in queue names.
func resolveDeviceID(ctx context.Context, flagID, configID string, creds *credentials.Store) (string, error) {
	if flagID != "" {
		return flagID, dispatch.ValidateDeviceID(flagID)
	}
	if configID != "" {
		return configID, dispatch.ValidateDeviceID(configID)
	}

	stored, ok, err := creds.DeviceIdentity(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return stored.ID, dispatch.ValidateDeviceID(stored.ID)
	}

	id := uuid.NewString()
	if err := creds.SaveDeviceIdentity(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// newDispatcher builds the command dispatcher over the MQTT queue transport.
// The MQTT client ID is suffixed with the device ID so each hub keeps its
// own persistent session.
func newDispatcher(cfg *config.Config, deviceID string, log *logging.Logger) *dispatch.Dispatcher {
	mqttCfg := cfg.MQTT
	mqttCfg.Broker.ClientID = fmt.Sprintf("%s-%s", cfg.MQTT.Broker.ClientID, deviceID)

	transport := mqtt.NewQueueTransport(mqttCfg)
	transport.SetLogger(log)

	fallback := credentials.Credentials{
		Username: cfg.MQTT.Fallback.Username,
		Password: cfg.MQTT.Fallback.Password,
		Scope:    credentials.ScopeBroker,
	}

	d := dispatch.New(deviceID, dispatch.TransportFunc(
		func(ctx context.Context, username, password string) (dispatch.Conn, error) {
			conn, err := transport.Dial(ctx, username, password)
			if err != nil {
				return nil, err
			}
			return conn, nil
		}), fallback)
	d.SetLogger(log)
	return d
}
