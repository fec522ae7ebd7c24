// tvdisplay - openeos TV display client
//
// This is the main entry point for the tvdisplay daemon. It pairs a
// screen with an openeos organization, keeps a local copy of the
// display data (orders, catalog, stats), follows the realtime feeds,
// and serves the render layer over a loopback HTTP/WebSocket surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/openeos/tvdisplay-core/internal/apiclient"
	"github.com/openeos/tvdisplay-core/internal/display"
	"github.com/openeos/tvdisplay-core/internal/heartbeat"
	"github.com/openeos/tvdisplay-core/internal/history"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/config"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/database"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/storage"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/telemetry"
	"github.com/openeos/tvdisplay-core/internal/realtime"
	"github.com/openeos/tvdisplay-core/internal/refresh"
	"github.com/openeos/tvdisplay-core/internal/session"
	"github.com/openeos/tvdisplay-core/internal/ui"
	"github.com/openeos/tvdisplay-core/migrations"

	"github.com/google/uuid"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Kiosk installs carry backend credentials in an .env next to the
	// binary; absence is not an error.
	//nolint:errcheck
	godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting tvdisplay",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open the local database
	db, err := database.Open(database.Config{
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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	kv := storage.New(db)

	installID, err := ensureInstallID(ctx, kv)
	if err != nil {
		return fmt.Errorf("install id: %w", err)
	}

	// Backend API client
	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.GetBackendTimeout(),
	}, log)

	// Display store, rehydrated from the last run
	store := display.NewStore()
	if raw, getErr := kv.Get(ctx, storage.KeyDisplaySettings); getErr == nil {
		if restoreErr := store.RestoreSettings(raw); restoreErr != nil {
			log.Warn("discarding saved display settings", "error", restoreErr)
		}
	} else if !errors.Is(getErr, storage.ErrNotFound) {
		log.Warn("loading display settings", "error", getErr)
	}

	// Session manager
	sess := session.NewManager(api, kv, cfg.GetPollingInterval(), log)
	defer sess.Close()

	// Sync journal
	journal := history.NewRepository(db, log)

	// Fleet telemetry (optional)
	var tele *telemetry.Client
	if cfg.Telemetry.Enabled {
		tele, err = telemetry.Connect(cfg.Telemetry, installID)
		if err != nil {
			return fmt.Errorf("connecting telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := tele.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		log.Info("telemetry connected", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	} else {
		log.Info("telemetry disabled")
	}

	// Heartbeat scheduler
	hb := heartbeat.New(api, cfg.GetHeartbeatInterval(), log)
	if tele != nil {
		hb.SetRecorder(tele)
	}
	defer hb.Stop()

	// Periodic refresh runner
	ref := refresh.New(api, store, sess, cfg.GetOrdersInterval(), cfg.GetStatsInterval(), log)
	ref.SetJournal(journal)
	defer ref.Stop()

	// Realtime channel manager
	rt := realtime.NewManager(cfg.Realtime, realtime.NewDialer(cfg.Realtime, log), store, log)
	rt.SetRefresher(ref)
	defer rt.Close()

	// Local UI server
	uiServer := ui.New(ui.Deps{
		Config:   cfg,
		Logger:   log,
		Session:  sess,
		Store:    store,
		Realtime: rt,
		Refresh:  ref,
		Journal:  journal,
		KV:       kv,
		DB:       db,
		Version:  version,
	})

	// Payments only chime; they carry no display data.
	rt.SetOnPayment(func() {
		uiServer.Hub().BroadcastEvent("payment")
	})
	// Item transitions already land in the store; the event frame lets
	// the render layer play its per-item cue.
	rt.SetOnItemEvent(func(event, _, _ string) {
		uiServer.Hub().BroadcastEvent(event)
	})

	// Every store change feeds the render layer a fresh snapshot and
	// persists the view settings when they moved.
	var settingsMu sync.Mutex
	var lastSettings string
	store.SetOnChange(func() {
		uiServer.Hub().BroadcastState(uiServer.BuildState())

		raw, jsonErr := store.SettingsJSON()
		if jsonErr != nil {
			log.Error("encoding display settings", "error", jsonErr)
			return
		}
		settingsMu.Lock()
		changed := raw != lastSettings
		lastSettings = raw
		settingsMu.Unlock()
		if changed {
			if setErr := kv.Set(context.Background(), storage.KeyDisplaySettings, raw); setErr != nil {
				log.Error("persisting display settings", "error", setErr)
			}
		}
	})

	// Every session transition drives the dependent machinery: the
	// realtime channels, the heartbeat, the refresh jobs, and the
	// approval polling loop.
	wasVerified := false
	sess.SetOnChange(func(snap session.Snapshot) {
		// The backend's device class wins over the locally saved mode,
		// but only once there is a device to speak for.
		if snap.DeviceID != "" {
			if mode := snap.DeviceClass.DisplayMode(); mode != store.DisplayMode() {
				store.SetDisplayMode(mode)
			}
		}
		rt.Reconcile(snap, sess.Token())

		switch {
		case snap.Verified():
			hb.Start()
			ref.Start()
		default:
			hb.Stop()
			ref.Stop()
			// Losing the verified session invalidates everything the
			// backend fed us; keep only the local display settings.
			if wasVerified {
				store.Reset()
			}
		}
		wasVerified = snap.Verified()
		if snap.Status == session.StatusPending {
			sess.StartPolling()
		}

		if tele != nil {
			tele.RecordConnection("realtime", rt.Connected())
		}
	})

	// Rehydrate the session last, so the restore drives the observers
	// exactly like a live transition would.
	if loadErr := sess.Load(ctx); loadErr != nil {
		log.Error("restoring session", "error", loadErr)
	}

	if startErr := uiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting ui server: %w", startErr)
	}
	defer func() {
		log.Info("stopping ui server")
		if closeErr := uiServer.Close(); closeErr != nil {
			log.Error("error stopping ui server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TVDISPLAY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TVDISPLAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// ensureInstallID returns the stable per-install identifier, creating
// one on first boot. It survives logouts and device resets, which is
// what makes fleet telemetry traceable across re-pairings.
func ensureInstallID(ctx context.Context, kv *storage.Store) (string, error) {
	id, err := kv.Get(ctx, storage.KeyInstallID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if setErr := kv.Set(ctx, storage.KeyInstallID, id); setErr != nil {
		return "", setErr
	}
	return id, nil
}
