// cmd/web/main.go
//
// Booking backend: HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (.env → conf/global.yaml → BISTRO_* env),
//     connecting to Vault first when any setting is a `vault:` reference.
//
//  2. Start the daily rotating logger (tees to console in a TTY) and the
//     optional GeoIP reader.
//
//  3. Open the database, create missing tables, seed ACL rules and
//     default time slots.
//
//  4. Build the chi router and serve until SIGINT / SIGTERM.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/acl"
	"github.com/yanizio/bistro/internal/api"
	"github.com/yanizio/bistro/internal/availability"
	"github.com/yanizio/bistro/internal/config"
	"github.com/yanizio/bistro/internal/database"
	"github.com/yanizio/bistro/internal/gateway"
	"github.com/yanizio/bistro/internal/logger"
	"github.com/yanizio/bistro/internal/requestinfo"
	"github.com/yanizio/bistro/internal/schema"
	"github.com/yanizio/bistro/internal/server"
	"github.com/yanizio/bistro/internal/session"
	"github.com/yanizio/bistro/internal/vault"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	memory := flag.Bool("memory", false, "use a throw-away in-memory SQLite database")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *memory); err != nil {
		zap.S().Errorw("fatal", "err", err)
		_ = zap.L().Sync()
		log.Fatal(err)
	}
}

func run(ctx context.Context, memory bool) error {
	//
	// ── 1.  Config (Vault only when referenced) ─────────────────────────
	//
	var secrets config.SecretSource
	if config.NeedsSecrets(config.RootDir()) {
		vc, err := vault.New(ctx)
		if err != nil {
			return err
		}
		secrets = vc
	}
	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return err
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(cfg.Log.Dir, cfg.Log.Level, cfg.Log.Tee || runningInTTY())
	if err != nil {
		return err
	}
	defer func() { _ = logOut.Sync() }()

	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		logOut.Warnw("geo lookup disabled", "err", err)
	}
	defer requestinfo.CloseGeo()

	//
	// ── 3.  Database ────────────────────────────────────────────────────
	//
	var db *sqlx.DB
	if memory {
		db, err = database.OpenMemory(ctx)
	} else {
		db, err = database.OpenWithOptions(cfg.Database.Driver, cfg.Database.DSN,
			cfg.Database.MaxOpen, cfg.Database.MaxIdle)
		if err == nil {
			err = database.Migrate(ctx, db, schema.Default())
		}
	}
	if err != nil {
		return err
	}
	defer db.Close()
	logOut.Infow("database online", "driver", db.DriverName(), "memory", memory)

	store := acl.NewStore(db)
	if _, err := acl.SeedDefaults(ctx, store); err != nil {
		return err
	}
	if _, err := availability.EnsureTimeSlots(ctx, db); err != nil {
		return err
	}
	if !cfg.ACL.Enabled {
		logOut.Warnw("ACL enforcement is disabled; every request is allowed")
	}

	//
	// ── 4.  Router and server ───────────────────────────────────────────
	//
	handler := api.NewRouter(api.Deps{
		DB:         db,
		Gateway:    gateway.New(db, schema.Default()),
		Aggregator: availability.New(db),
		Sessions:   session.NewStore(db, cfg.Session.Lifetime),
		Cookies:    session.Cookies{Name: cfg.Session.Cookie, Secure: cfg.Session.Secure},
		ACL:        acl.NewResolver(store, cfg.ACL.Enabled),
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
	})

	return server.Run(ctx, server.New(cfg.HTTP.ListenAddr, handler))
}
