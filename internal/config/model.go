// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                     dotenv values,
//   • `conf/global.yaml`                       primary static file,
//   • `BISTRO_`-prefixed environment overrides highest precedence.
//
// Any string value beginning with `vault:` is resolved through Vault
// *before* unmarshalling, so the model never stores Vault references.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

// Database selects the SQL engine.  DSN typically carries a
// `vault:` reference in production.
type Database struct {
	Driver  string `koanf:"driver"   validate:"required,oneof=mysql sqlite"`
	DSN     string `koanf:"dsn"      validate:"required"`
	MaxOpen int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle int    `koanf:"max_idle" validate:"gte=0"`
}

// ACL toggles rule enforcement.  The development config ships with
// Enabled=false; production must set it.
type ACL struct {
	Enabled bool `koanf:"enabled"`
}

// Session controls the login cookie.
type Session struct {
	Cookie   string        `koanf:"cookie"   validate:"required"`
	Lifetime time.Duration `koanf:"lifetime" validate:"gte=0"`
	Secure   bool          `koanf:"secure"`
}

// Log configures the zap file logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

// Geo points at an optional GeoLite2 database for the access log.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // BISTRO_ROOT or discovered parent
}

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	ACL      ACL      `koanf:"acl"`
	Session  Session  `koanf:"session"`
	Log      Log      `koanf:"log"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}
