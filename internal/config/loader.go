// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env`.
  2. `<root>/conf/global.yaml`.
  3. Environment variables prefixed `BISTRO_`, where `__` maps to "."
     (e.g., `BISTRO_ACL__ENABLED → acl.enabled`).

String values of the form `vault:<mount>/<path>#<key>` are then replaced
with the secret they name.  The tree is unmarshalled into typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`, so
    `go run ./cmd/web` works from any sub-directory.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "BISTRO_"

// VaultPrefix marks values resolved through a SecretSource.
const VaultPrefix = "vault:"

// ErrNoSecrets is returned when a vault: reference is present but no
// SecretSource was supplied.
var ErrNoSecrets = errors.New("config: vault reference without a secret source")

// SecretSource resolves `<mount>/<path>#<key>` references.
// *vault.Client satisfies it.
type SecretSource interface {
	Ref(ctx context.Context, ref string) (string, error)
}

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves BISTRO_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the executable layout.
func RootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads configuration from RootDir().  secrets may be nil when no
// value uses a vault: reference.
func Load(ctx context.Context, secrets SecretSource) (*Config, error) {
	return LoadFrom(ctx, RootDir(), secrets)
}

// LoadFrom reads .env, YAML, env overrides, resolves vault references,
// validates, and caches Config.
func LoadFrom(ctx context.Context, root string, secrets SecretSource) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	k, err := layers(root)
	if err != nil {
		return nil, err
	}

	if err := resolveSecrets(ctx, k, secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = filepath.Join(root, "logs")
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"driver", cfg.Database.Driver,
		"acl_enabled", cfg.ACL.Enabled,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets swaps every vault: string in k for its secret value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets SecretSource) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, VaultPrefix) {
			continue
		}
		if secrets == nil {
			return fmt.Errorf("%s: %w", key, ErrNoSecrets)
		}
		secret, err := secrets.Ref(ctx, strings.TrimPrefix(s, VaultPrefix))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, secret); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

// NeedsSecrets reports whether any merged value under root is a vault:
// reference.  main uses it to skip Vault when nothing references it.
func NeedsSecrets(root string) bool {
	k, err := layers(root)
	if err != nil {
		return false
	}
	for _, val := range k.All() {
		if s, ok := val.(string); ok && strings.HasPrefix(s, VaultPrefix) {
			return true
		}
	}
	return false
}

// layers merges .env, YAML, and env overrides into one koanf tree.
func layers(root string) (*koanf.Koanf, error) {
	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: BISTRO_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}
	return k, nil
}

func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the last successfully loaded Config, or nil.
func Get() *Config { return current.Load() }
