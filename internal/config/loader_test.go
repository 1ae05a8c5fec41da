package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
http:
  listen_addr: ":8080"
  force_https: false
database:
  driver: sqlite
  dsn: "vault:secret/bistro#dsn"
acl:
  enabled: false
session:
  cookie: bistro_session
  lifetime: 2h
log:
  level: info
`

type fakeSecrets map[string]string

func (f fakeSecrets) Ref(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", errors.New("missing " + ref)
	}
	return v, nil
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestLoadFromLayersAndSecrets(t *testing.T) {
	root := writeRoot(t, sample)
	t.Setenv("BISTRO_ACL__ENABLED", "true")
	t.Setenv("BISTRO_HTTP__LISTEN_ADDR", "127.0.0.1:9000")

	cfg, err := LoadFrom(context.Background(), root, fakeSecrets{"secret/bistro#dsn": "file:bistro.db"})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !cfg.ACL.Enabled {
		t.Error("env override for acl.enabled not applied")
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Database.DSN != "file:bistro.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Session.Lifetime != 2*time.Hour {
		t.Errorf("lifetime = %v", cfg.Session.Lifetime)
	}
	if cfg.Log.Dir != filepath.Join(root, "logs") {
		t.Errorf("log dir = %q", cfg.Log.Dir)
	}
	if Get() != cfg {
		t.Error("Get does not return the cached config")
	}
	if !NeedsSecrets(root) {
		t.Error("NeedsSecrets = false")
	}
}

func TestLoadFromWithoutSecretSource(t *testing.T) {
	root := writeRoot(t, sample)
	if _, err := LoadFrom(context.Background(), root, nil); !errors.Is(err, ErrNoSecrets) {
		t.Fatalf("want ErrNoSecrets, got %v", err)
	}
}

func TestLoadFromValidation(t *testing.T) {
	root := writeRoot(t, `
http:
  listen_addr: ":8080"
database:
  driver: postgres
  dsn: x
session:
  cookie: sid
`)
	if _, err := LoadFrom(context.Background(), root, nil); err == nil {
		t.Fatal("expected validation error for unsupported driver")
	}
}
