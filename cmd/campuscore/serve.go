package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/teleinformatics/campus-core/internal/api"
	"github.com/teleinformatics/campus-core/internal/audit"
	"github.com/teleinformatics/campus-core/internal/auth"
	"github.com/teleinformatics/campus-core/internal/authevents"
	"github.com/teleinformatics/campus-core/internal/infrastructure/config"
	"github.com/teleinformatics/campus-core/internal/infrastructure/database"
	"github.com/teleinformatics/campus-core/internal/infrastructure/influxdb"
	"github.com/teleinformatics/campus-core/internal/infrastructure/logging"
	"github.com/teleinformatics/campus-core/internal/infrastructure/mqtt"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, cfg.Service.Name, version)
			return serve(cmd.Context(), cfg, log, nil)
		},
	}
}

// serve runs the service until ctx is cancelled. started, if non-nil, is
// called once the API is listening.
func serve(ctx context.Context, cfg *config.Config, log *logging.Logger, started func(*api.Server)) error { //nolint:gocognit,gocyclo // linear startup sequence
	log.Info("starting campus-core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Open database
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, log.Logger); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	healthChecks := map[string]api.HealthChecker{"database": db}

	// Metrics registry shared by the API and the auth event counter
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Auth event sinks
	auditRepo := audit.NewSQLiteRepository(db.DB)
	auditSink := authevents.NewAuditSink(auditRepo, log.Logger, authevents.DefaultAuditBuffer)
	auditSink.Start(ctx)
	defer func() {
		log.Info("flushing audit trail")
		auditSink.Close()
	}()

	metricsSink, err := authevents.NewMetricsSink(registry)
	if err != nil {
		return fmt.Errorf("registering auth metrics: %w", err)
	}

	sinks := []auth.EventSink{auditSink, metricsSink, authevents.NewLogSink(log.Logger)}

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"topics", mqttClient.Topics().AllAuthEvents(),
		)

		sinks = append(sinks, authevents.NewMQTTSink(mqttClient, log.Logger))
		healthChecks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		sinks = append(sinks, authevents.NewInfluxSink(influxClient))
		healthChecks["influxdb"] = influxClient
	}

	events := authevents.Multi(sinks...)

	// Authentication core
	store := auth.NewSQLiteCredentialStore(db.DB)
	roles := auth.NewSQLiteRoleCatalog(db.DB)
	hasher := auth.NewArgon2Hasher(auth.DefaultArgon2Params)

	codec, err := auth.NewCodec([]byte(cfg.Security.JWT.Secret), cfg.Security.JWT.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	authenticator, err := auth.NewAuthenticator(store, roles, hasher, codec,
		auth.WithDefaultRole(auth.Role(cfg.Auth.DefaultRole)),
		auth.WithEvents(events),
		auth.WithLogger(log.Logger),
	)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	// A missing default role would fail every registration; refuse to start.
	role, err := authenticator.CheckDefaultRole(ctx)
	if err != nil {
		log.Error("default role check failed", "role", cfg.Auth.DefaultRole, "error", err)
		return fmt.Errorf("checking default role: %w", err)
	}
	log.Info("default role verified", "role", role.Name, "description", role.Description)

	if cfg.Auth.SeedAdmin.Enabled {
		if _, seedErr := auth.SeedAdmin(ctx, store, hasher, cfg.Auth.SeedAdmin.Email, log.Logger); seedErr != nil {
			return fmt.Errorf("seeding admin: %w", seedErr)
		}
	}

	// HTTP API
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		RateLimit:    cfg.Security.RateLimit,
		Logger:       log,
		Credentials:  authenticator,
		Tokens:       codec,
		Identities:   store,
		Roles:        roles,
		AuditRepo:    auditRepo,
		Events:       events,
		Registry:     registry,
		HealthChecks: healthChecks,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if started != nil {
		started(server)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, audit trail, database.
	return nil
}

