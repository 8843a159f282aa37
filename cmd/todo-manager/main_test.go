package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todo-manager/internal/config"
	"todo-manager/internal/logging"
	"todo-manager/internal/session"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "ENVIRONMENT", "DB_DRIVER", "DB_PATH", "REDIS_ENABLED", "SESSION_SECRET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "todo.db")
	t.Setenv("DB_PATH", dbPath)

	out, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if out != "schema up to date\n" {
		t.Errorf("unexpected output %q", out)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open migrated database: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	for _, table := range []string{"users", "tasks"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestMigrateCommand_ConfigFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "from-file.db")
	configPath := filepath.Join(dir, "config.yaml")

	content := "database:\n  driver: sqlite\n  path: " + dbPath + "\nlog:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := execute(t, "migrate", "--config", configPath); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected database file at %s: %v", dbPath, err)
	}
}

func TestMigrateCommand_BadConfig(t *testing.T) {
	isolateEnv(t)

	if _, err := execute(t, "migrate", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}

	t.Setenv("ENVIRONMENT", "production")
	if _, err := execute(t, "migrate"); err == nil {
		t.Error("expected production guard to reject the default session secret")
	}
}

func TestOpenSessionStore(t *testing.T) {
	isolateEnv(t)
	cfg := config.Default()

	store, err := openSessionStore(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Errorf("expected memory store when redis is disabled, got %T", store)
	}

	cfg.Redis.Enabled = true
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = "1"
	cfg.Redis.MaxRetries = -1
	if _, err := openSessionStore(context.Background(), cfg, logging.Discard()); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate"} {
		if !names[want] {
			t.Errorf("expected %s subcommand", want)
		}
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config flag")
	}
}

func TestOpenSessionStore_Redis(t *testing.T) {
	isolateEnv(t)
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Redis.Enabled = true
	host, port, _ := strings.Cut(mr.Addr(), ":")
	cfg.Redis.Host = host
	cfg.Redis.Port = port

	store, err := openSessionStore(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("open redis store: %v", err)
	}
	defer store.Close()

	if _, ok := store.(*session.GuardedStore); !ok {
		t.Errorf("expected guarded redis store, got %T", store)
	}
	if err := store.Save(context.Background(), "sid", session.Record{UserID: 1}, 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists(cfg.Redis.KeyPrefix + "sid") {
		t.Error("expected session in redis")
	}
}
