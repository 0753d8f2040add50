package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/events"
	"github.com/electricworld/electricworld-core/internal/infrastructure/config"
	"github.com/electricworld/electricworld-core/internal/infrastructure/influxdb"
	"github.com/electricworld/electricworld-core/internal/infrastructure/logging"
	"github.com/electricworld/electricworld-core/internal/infrastructure/mqtt"
	"github.com/electricworld/electricworld-core/internal/journal"
	"github.com/electricworld/electricworld-core/internal/relay"
	"github.com/electricworld/electricworld-core/internal/server"
	"github.com/electricworld/electricworld-core/migrations"
)

// healthCheckInterval is how often side-channel connections are probed.
const healthCheckInterval = 30 * time.Second

// healthCheckTimeout bounds a single probe.
const healthCheckTimeout = 5 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the game server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, cmd.Flags().Changed("config"))
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions, explicit bool) error {
	log := logging.Default()
	log.Info("starting Electric World server",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(opts, explicit)
	if err != nil {
		return err
	}
	log.Info("configuration loaded", "path", opts.configPath)

	log = logging.New(cfg.Logging, version)
	return run(ctx, cfg, log)
}

// closer is a named shutdown step, run in reverse order of registration.
type closer struct {
	name string
	fn   func() error
}

// run wires the server and its optional side channels, serves until ctx
// is cancelled, then shuts everything down.
func run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	var closers []closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			log.Info("closing " + closers[i].name)
			if err := closers[i].fn(); err != nil {
				log.Error("error closing "+closers[i].name, "error", err)
			}
		}
	}()

	store := device.NewStore(device.WithOwnershipEnforcement(cfg.Game.EnforceOwnership))

	var (
		sinks  []events.Sink
		repo   journal.Repository
		checks = map[string]func(context.Context) error{}
	)

	// Event journal (optional)
	if cfg.Journal.Enabled {
		db, err := openJournal(cfg.Journal)
		if err != nil {
			return err
		}
		closers = append(closers, closer{"journal", db.Close})

		if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
			return fmt.Errorf("running journal migrations: %w", err)
		}
		repo = journal.NewSQLiteRepository(db.DB)
		sinks = append(sinks, journal.NewSink(repo))
		checks["journal"] = db.HealthCheck
		log.Info("event journal enabled", "path", db.Path())
	} else {
		log.Info("event journal disabled")
	}

	// MQTT relay (optional)
	if cfg.MQTT.Enabled {
		mqttCli, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		closers = append(closers, closer{"MQTT", mqttCli.Close})
		mqttCli.SetLogger(log.With("component", "mqtt"))
		mqttCli.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttCli.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

		sinks = append(sinks, relay.NewMQTTSink(mqttCli, mqttCli.Topics(), byte(cfg.MQTT.QoS)))
		checks["mqtt"] = mqttCli.HealthCheck
		log.Info("MQTT relay enabled",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"topic_prefix", mqttCli.Topics().Prefix(),
		)
	} else {
		log.Info("MQTT relay disabled")
	}

	// InfluxDB telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxCli, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		closers = append(closers, closer{"InfluxDB", influxCli.Close})
		influxCli.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		sinks = append(sinks, relay.NewTelemetry(influxCli, store))
		checks["influxdb"] = influxCli.HealthCheck
		log.Info("InfluxDB telemetry enabled",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB telemetry disabled")
	}

	srv, err := server.New(server.Deps{
		Config:  cfg,
		Logger:  log,
		Journal: repo,
		Sinks:   sinks,
		Version: version,
		Store:   store,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, cleaning up")
		return srv.Stop()
	})
	g.Go(func() error {
		monitorHealth(gctx, checks, log)
		return nil
	})

	log.Info("initialisation complete", "address", srv.Addr().String())
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}

	log.Info("Electric World server stopped")
	return nil
}

// monitorHealth probes every side channel on a fixed interval until ctx is
// done. Failures are logged; the game keeps running without its side
// channels.
func monitorHealth(ctx context.Context, checks map[string]func(context.Context) error, log *logging.Logger) {
	if len(checks) == 0 {
		return
	}
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, check := range checks {
				probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
				if err := check(probeCtx); err != nil {
					log.Warn("health check failed", "target", name, "error", err)
				}
				cancel()
			}
		}
	}
}
