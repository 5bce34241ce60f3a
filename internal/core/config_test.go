package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AWARDBOOK_ENV", "")
	cfg, err := LoadConfig("", t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "dev" || cfg.StorageDriver != StorageDir || cfg.DataDir != "data/tables" || cfg.PasswordScheme != "pbkdf2" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigDotenvAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", ".env.test"), "AWARDBOOK_STORAGE_DRIVER=sqlite\nAWARDBOOK_SQLITE_PATH=/tmp/test.db\nAWARDBOOK_LOG_LEVEL=debug\nOTHER=ignored\n")
	writeFile(t, filepath.Join(dir, ".env"), "AWARDBOOK_STORAGE_DRIVER=memory\nAWARDBOOK_TABLE_SUFFIX=\" (test students)\"\n")
	t.Setenv("AWARDBOOK_LOG_LEVEL", "error")

	cfg, err := LoadConfig("test", dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "test" {
		t.Fatalf("env = %q", cfg.Env)
	}
	if cfg.StorageDriver != StorageSQLite || cfg.SQLitePath != "/tmp/test.db" {
		t.Fatalf("expected the env-specific dotenv to win, got %+v", cfg)
	}
	if cfg.TableSuffix != " (test students)" {
		t.Fatalf("suffix = %q", cfg.TableSuffix)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected process environment to win, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("AWARDBOOK_STORAGE_DRIVER", "postgres")
	if _, err := LoadConfig("test", t.TempDir()); err == nil {
		t.Fatalf("expected postgres without a DSN to fail")
	}
	t.Setenv("AWARDBOOK_STORAGE_DRIVER", "floppy")
	if _, err := LoadConfig("test", t.TempDir()); err == nil {
		t.Fatalf("expected an unknown storage driver to fail")
	}
	t.Setenv("AWARDBOOK_STORAGE_DRIVER", "memory")
	t.Setenv("AWARDBOOK_LOG_LEVEL", "warn")
	if cfg, err := LoadConfig("test", t.TempDir()); err != nil || cfg.LogLevel != "warn" {
		t.Fatalf("expected warn log level to be accepted, got %+v (%v)", cfg, err)
	}
	t.Setenv("AWARDBOOK_STORAGE_DRIVER", "memory")
	t.Setenv("AWARDBOOK_BLOB_DRIVER", "s3")
	if _, err := LoadConfig("test", t.TempDir()); err == nil {
		t.Fatalf("expected s3 without a bucket to fail")
	}
}
